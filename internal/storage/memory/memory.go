package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mebel-mes/internal/storage"
)

// Store коллекция партий в памяти. Все изменения идут через Update под блокировкой.
type Store struct {
	mu          sync.RWMutex
	orders      map[string]*storage.WorkOrder
	ids         []string
	initialized bool

	now   func() time.Time
	newID func(now time.Time) string
}

func New() *Store {
	return &Store{
		orders: make(map[string]*storage.WorkOrder),
		now:    time.Now,
		newID:  generateID,
	}
}

func generateID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("wo-%d-%s", now.UnixMilli(), suffix)
}

// Create присваивает id (при коллизии генерирует заново) и дефолты
func (s *Store) Create(wo storage.WorkOrder) storage.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	id := s.newID(now)
	for {
		if _, exists := s.orders[id]; !exists {
			break
		}
		id = s.newID(now)
	}

	rec := wo.Clone()
	rec.ID = id
	if rec.Status == "" {
		rec.Status = storage.StatusQueued
	}
	if rec.Checklist == nil {
		rec.Checklist = map[string]bool{}
	}
	if rec.TimeMinutes < 0 {
		rec.TimeMinutes = 0
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	s.orders[id] = &rec
	s.ids = append(s.ids, id)
	s.initialized = true

	return rec.Clone()
}

func (s *Store) Get(id string) (storage.WorkOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wo, ok := s.orders[id]
	if !ok {
		return storage.WorkOrder{}, false
	}
	return wo.Clone(), true
}

// Update применяет fn к копии и сохраняет только если fn вернул nil
func (s *Store) Update(id string, fn func(wo *storage.WorkOrder) error) (storage.WorkOrder, error) {
	const op = "storage.memory.Update"

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.orders[id]
	if !ok {
		return storage.WorkOrder{}, fmt.Errorf("%s: id=%s: %w", op, id, storage.ErrWorkOrderNotFound)
	}

	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur.Clone(), err
	}

	next.ID = cur.ID
	next.UpdatedAt = s.now()
	s.orders[id] = &next

	return next.Clone(), nil
}

func (s *Store) List(filter storage.WorkOrderFilter) []storage.WorkOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.WorkOrder, 0, len(s.ids))
	for _, id := range s.ids {
		wo := s.orders[id]
		if filter.Match(*wo) {
			out = append(out, wo.Clone())
		}
	}
	return out
}

// Load заменяет содержимое данными из постоянного хранилища
func (s *Store) Load(orders []storage.WorkOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make(map[string]*storage.WorkOrder, len(orders))
	s.ids = s.ids[:0]

	for _, wo := range orders {
		if wo.ID == "" {
			continue
		}
		rec := wo.Clone()
		if rec.Checklist == nil {
			rec.Checklist = map[string]bool{}
		}
		if _, dup := s.orders[rec.ID]; !dup {
			s.ids = append(s.ids, rec.ID)
		}
		s.orders[rec.ID] = &rec
	}

	s.initialized = true
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
