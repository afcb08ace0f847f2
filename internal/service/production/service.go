package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mebel-mes/internal/config"
	"mebel-mes/internal/constants"
	"mebel-mes/internal/identity"
	"mebel-mes/internal/service/eventlog"
	"mebel-mes/internal/storage"
)

var ErrInvalidField = errors.New("invalid field")

// errNoChange прерывает Update без записи
var errNoChange = errors.New("no change")

type WorkOrderStore interface {
	Create(wo storage.WorkOrder) storage.WorkOrder
	Get(id string) (storage.WorkOrder, bool)
	Update(id string, fn func(wo *storage.WorkOrder) error) (storage.WorkOrder, error)
	List(filter storage.WorkOrderFilter) []storage.WorkOrder
	Load(orders []storage.WorkOrder)
}

// Persister сохраняет снимки партий и события после изменения в памяти
type Persister interface {
	SaveWorkOrder(ctx context.Context, wo storage.WorkOrder) error
	GetAllWorkOrders(ctx context.Context) ([]storage.WorkOrder, error)
	SaveEvent(ctx context.Context, ev storage.Event) error
	GetRecentEvents(ctx context.Context, limit int) ([]storage.Event, error)
}

type Recorder interface {
	ObserveEvent(action string)
	ObserveAdvance(outcome string)
	ObserveWIP(loads []StageLoad)
}

type Options struct {
	Persister Persister
	Recorder  Recorder
	Now       func() time.Time
}

type Service struct {
	log      *slog.Logger
	store    WorkOrderStore
	catalog  *Catalog
	capacity *Capacity
	engine   *Engine
	events   *eventlog.Log

	requireMaterials bool

	persister Persister
	recorder  Recorder
	now       func() time.Time

	// запись в хранилище по одной партии за раз
	persistMu sync.Map
}

const persistTimeout = 5 * time.Second

func NewService(log *slog.Logger, store WorkOrderStore, cfg config.Production, opts Options) *Service {
	catalog := CatalogFromConfig(cfg)

	s := &Service{
		log:              log,
		store:            store,
		catalog:          catalog,
		capacity:         CapacityFromConfig(catalog, cfg),
		engine:           NewEngine(catalog, cfg.ReseedChecklistOnAdvance),
		events:           eventlog.New(cfg.EventLogSize),
		requireMaterials: cfg.RequireMaterialsReady,
		persister:        opts.Persister,
		recorder:         opts.Recorder,
		now:              opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

func (s *Service) Catalog() *Catalog   { return s.catalog }
func (s *Service) Capacity() *Capacity { return s.capacity }

// Restore поднимает партии и хвост журнала из постоянного хранилища
func (s *Service) Restore(ctx context.Context) error {
	const op = "service.production.Restore"

	if s.persister == nil {
		s.store.Load(nil)
		return nil
	}

	var (
		orders []storage.WorkOrder
		events []storage.Event
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.persister.GetAllWorkOrders(gCtx)
		if err != nil {
			return fmt.Errorf("work orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		events, err = s.persister.GetRecentEvents(gCtx, s.events.Cap())
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.store.Load(orders)

	// в журнал от старых к новым
	for i := len(events) - 1; i >= 0; i-- {
		s.events.Append(events[i])
	}

	s.observeWIP()

	s.log.Info("production state restored",
		slog.Int("work_orders", len(orders)),
		slog.Int("events", len(events)),
	)

	return nil
}

type CreateRequest struct {
	ProjectID      string            `json:"projectId"`
	Name           string            `json:"name"`
	Stage          storage.ShopStage `json:"stage"`
	Assignee       string            `json:"assignee"`
	DueDate        *time.Time        `json:"dueDate"`
	PlanStart      *time.Time        `json:"planStart"`
	PlanEnd        *time.Time        `json:"planEnd"`
	Notes          string            `json:"notes"`
	MaterialsReady *bool             `json:"materialsReady"`
	SkipFlags      storage.SkipFlags `json:"skipFlags"`
	Checklist      map[string]bool   `json:"checklist"`
}

func (s *Service) CreateWorkOrder(ctx context.Context, req CreateRequest) (storage.WorkOrder, error) {
	const op = "service.production.CreateWorkOrder"

	stage := req.Stage
	if stage == "" {
		stage = storage.StagePurchase
	}
	if !s.catalog.Valid(stage) {
		return storage.WorkOrder{}, fmt.Errorf("%s: stage=%q: %w", op, stage, ErrInvalidField)
	}

	name := req.Name
	if name == "" {
		name = "Новая партия"
	}

	checklist := req.Checklist
	if checklist == nil {
		checklist = s.catalog.SeedChecklist(stage)
	}

	wo := s.store.Create(storage.WorkOrder{
		ProjectID:      req.ProjectID,
		Name:           name,
		Stage:          stage,
		Status:         storage.StatusQueued,
		PlanStart:      req.PlanStart,
		PlanEnd:        req.PlanEnd,
		Checklist:      checklist,
		MaterialsReady: req.MaterialsReady,
		SkipFlags:      req.SkipFlags,
		Assignee:       req.Assignee,
		DueDate:        req.DueDate,
		Notes:          req.Notes,
	})

	s.commit(ctx, wo, storage.ActionWorkOrderCreate, map[string]any{
		"id":        wo.ID,
		"projectId": wo.ProjectID,
		"name":      wo.Name,
		"stage":     wo.Stage,
	})

	return wo, nil
}

func (s *Service) AdvanceStage(ctx context.Context, id string) (AdvanceResult, storage.WorkOrder, error) {
	const op = "service.production.AdvanceStage"

	var res AdvanceResult
	wo, err := s.store.Update(id, func(w *storage.WorkOrder) error {
		res = s.engine.Advance(w)
		if res.Blocked() {
			return errNoChange
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return AdvanceResult{}, storage.WorkOrder{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.recorder != nil {
		s.recorder.ObserveAdvance(string(res.Outcome))
	}

	switch res.Outcome {
	case OutcomeBlocked:
		s.log.Debug("advance blocked", slog.String("id", id), slog.String("reason", res.Reason))
	case OutcomeCompleted:
		s.commit(ctx, wo, storage.ActionWorkOrderDone, map[string]any{
			"id": wo.ID, "projectId": wo.ProjectID, "name": wo.Name, "from": res.From, "to": storage.StatusDone,
		})
	case OutcomeStageChanged:
		s.commit(ctx, wo, storage.ActionWorkOrderMove, map[string]any{
			"id": wo.ID, "projectId": wo.ProjectID, "name": wo.Name, "from": res.From, "to": res.To,
		})
	}

	return res, wo, nil
}

type TimerResult struct {
	OK           bool              `json:"ok"`
	Reason       string            `json:"reason,omitempty"`
	DeltaMinutes int               `json:"deltaMinutes"`
	WorkOrder    storage.WorkOrder `json:"workOrder"`
}

func (s *Service) StartTimer(ctx context.Context, id string) (TimerResult, error) {
	const op = "service.production.StartTimer"

	var reason string
	wo, err := s.store.Update(id, func(w *storage.WorkOrder) error {
		if w.Status == storage.StatusDone {
			reason = ReasonAlreadyDone
			return errNoChange
		}
		if s.requireMaterials && (w.MaterialsReady == nil || !*w.MaterialsReady) {
			reason = ReasonMaterialsNotReady
			return errNoChange
		}
		if !StartTimer(w, s.now()) {
			reason = ReasonTimerRunning
			return errNoChange
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return TimerResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if reason != "" {
		return TimerResult{Reason: reason, WorkOrder: wo}, nil
	}

	s.commit(ctx, wo, storage.ActionTimerStart, map[string]any{"id": wo.ID})

	return TimerResult{OK: true, WorkOrder: wo}, nil
}

func (s *Service) StopTimer(ctx context.Context, id string) (TimerResult, error) {
	const op = "service.production.StopTimer"

	var (
		delta  int
		reason string
	)
	wo, err := s.store.Update(id, func(w *storage.WorkOrder) error {
		// завершённая партия остаётся в истории как есть
		if w.Status == storage.StatusDone {
			reason = ReasonAlreadyDone
			return errNoChange
		}
		delta = StopTimer(w, s.now())
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return TimerResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if reason != "" {
		return TimerResult{Reason: reason, WorkOrder: wo}, nil
	}

	s.commit(ctx, wo, storage.ActionTimerStop, map[string]any{"id": wo.ID, "minutes": delta})

	return TimerResult{OK: true, DeltaMinutes: delta, WorkOrder: wo}, nil
}

func (s *Service) ToggleChecklistItem(ctx context.Context, id, label string, value bool) (storage.WorkOrder, error) {
	const op = "service.production.ToggleChecklistItem"

	if label == "" {
		return storage.WorkOrder{}, fmt.Errorf("%s: empty label: %w", op, ErrInvalidField)
	}

	wo, err := s.store.Update(id, func(w *storage.WorkOrder) error {
		if w.Checklist == nil {
			w.Checklist = map[string]bool{}
		}
		w.Checklist[label] = value
		return nil
	})
	if err != nil {
		return storage.WorkOrder{}, fmt.Errorf("%s: %w", op, err)
	}

	s.commit(ctx, wo, storage.ActionChecklistToggle, map[string]any{"id": wo.ID, "item": label, "value": value})

	return wo, nil
}

type SkipFlagsPatch struct {
	NoDrill *bool `json:"noDrill"`
	NoPaint *bool `json:"noPaint"`
}

func (s *Service) SetSkipFlags(ctx context.Context, id string, flags SkipFlagsPatch) (storage.WorkOrder, error) {
	const op = "service.production.SetSkipFlags"

	wo, err := s.store.Update(id, func(w *storage.WorkOrder) error {
		if flags.NoDrill != nil {
			w.SkipFlags.NoDrill = *flags.NoDrill
		}
		if flags.NoPaint != nil {
			w.SkipFlags.NoPaint = *flags.NoPaint
		}
		return nil
	})
	if err != nil {
		return storage.WorkOrder{}, fmt.Errorf("%s: %w", op, err)
	}

	s.commit(ctx, wo, storage.ActionSkipFlagsSet, map[string]any{
		"id": wo.ID, "noDrill": wo.SkipFlags.NoDrill, "noPaint": wo.SkipFlags.NoPaint,
	})

	return wo, nil
}

// FieldsPatch частичное обновление. Время, таймер и id сюда не входят.
type FieldsPatch struct {
	ProjectID      *string            `json:"projectId"`
	Name           *string            `json:"name"`
	Assignee       *string            `json:"assignee"`
	Notes          *string            `json:"notes"`
	DueDate        *time.Time         `json:"dueDate"`
	PlanStart      *time.Time         `json:"planStart"`
	PlanEnd        *time.Time         `json:"planEnd"`
	PackingListURL *string            `json:"packingListUrl"`
	Photos         []string           `json:"photos"`
	MaterialsReady *bool              `json:"materialsReady"`
	Status         *storage.Status    `json:"status"`
	Stage          *storage.ShopStage `json:"stage"`
}

func (s *Service) UpdateFields(ctx context.Context, id string, patch FieldsPatch) (storage.WorkOrder, error) {
	const op = "service.production.UpdateFields"

	if patch.Stage != nil && !s.catalog.Valid(*patch.Stage) {
		return storage.WorkOrder{}, fmt.Errorf("%s: stage=%q: %w", op, *patch.Stage, ErrInvalidField)
	}
	if patch.Status != nil && *patch.Status != storage.StatusQueued && *patch.Status != storage.StatusRework {
		return storage.WorkOrder{}, fmt.Errorf("%s: status=%q: %w", op, *patch.Status, ErrInvalidField)
	}

	changed := make([]string, 0, 4)
	wo, err := s.store.Update(id, func(w *storage.WorkOrder) error {
		if patch.Status != nil && w.TimerRunning() {
			return fmt.Errorf("status change while timer running: %w", ErrInvalidField)
		}

		if patch.ProjectID != nil {
			w.ProjectID = *patch.ProjectID
			changed = append(changed, "projectId")
		}
		if patch.Name != nil {
			w.Name = *patch.Name
			changed = append(changed, "name")
		}
		if patch.Assignee != nil {
			w.Assignee = *patch.Assignee
			changed = append(changed, "assignee")
		}
		if patch.Notes != nil {
			w.Notes = *patch.Notes
			changed = append(changed, "notes")
		}
		if patch.DueDate != nil {
			w.DueDate = patch.DueDate
			changed = append(changed, "dueDate")
		}
		if patch.PlanStart != nil {
			w.PlanStart = patch.PlanStart
			changed = append(changed, "planStart")
		}
		if patch.PlanEnd != nil {
			w.PlanEnd = patch.PlanEnd
			changed = append(changed, "planEnd")
		}
		if patch.PackingListURL != nil {
			w.PackingListURL = *patch.PackingListURL
			changed = append(changed, "packingListUrl")
		}
		if patch.Photos != nil {
			w.Photos = append([]string(nil), patch.Photos...)
			changed = append(changed, "photos")
		}
		if patch.MaterialsReady != nil {
			v := *patch.MaterialsReady
			w.MaterialsReady = &v
			changed = append(changed, "materialsReady")
		}
		if patch.Status != nil {
			w.Status = *patch.Status
			changed = append(changed, "status")
		}
		if patch.Stage != nil {
			w.Stage = *patch.Stage
			changed = append(changed, "stage")
		}
		return nil
	})
	if err != nil {
		return storage.WorkOrder{}, fmt.Errorf("%s: %w", op, err)
	}

	s.commit(ctx, wo, storage.ActionWorkOrderUpdate, map[string]any{"id": wo.ID, "fields": changed})

	return wo, nil
}

func (s *Service) GetWorkOrder(id string) (storage.WorkOrder, error) {
	const op = "service.production.GetWorkOrder"

	wo, ok := s.store.Get(id)
	if !ok {
		return storage.WorkOrder{}, fmt.Errorf("%s: id=%s: %w", op, id, storage.ErrWorkOrderNotFound)
	}
	return wo, nil
}

func (s *Service) QueryByStage(stage storage.ShopStage) ([]storage.WorkOrder, error) {
	const op = "service.production.QueryByStage"

	if !s.catalog.Valid(stage) {
		return nil, fmt.Errorf("%s: stage=%q: %w", op, stage, ErrInvalidField)
	}
	return s.store.List(storage.WorkOrderFilter{Stage: stage}), nil
}

func (s *Service) ListWorkOrders(filter storage.WorkOrderFilter) []storage.WorkOrder {
	return s.store.List(filter)
}

func (s *Service) WipSnapshot() []StageLoad {
	return WipSnapshot(s.store.List(storage.WorkOrderFilter{}), s.capacity, constants.StageLabels)
}

func (s *Service) Events(limit int) []storage.Event {
	return s.events.Recent(limit)
}

// commit пишет событие и отдаёт снимок в хранилище. Состояние в памяти уже изменено,
// ошибки хранилища только логируются.
func (s *Service) commit(ctx context.Context, wo storage.WorkOrder, action string, meta map[string]any) {
	ev := storage.Event{
		Timestamp: s.now(),
		Actor:     identity.Actor(ctx),
		Action:    action,
		Meta:      meta,
	}
	s.events.Append(ev)

	if s.recorder != nil {
		s.recorder.ObserveEvent(action)
	}
	s.observeWIP()

	if s.persister == nil {
		return
	}

	// обрыв клиента после изменения в памяти не должен терять запись
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	s.persistWorkOrder(pctx, wo.ID, action)

	if err := s.persister.SaveEvent(pctx, ev); err != nil {
		s.log.Error("failed to persist event",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

// persistWorkOrder пишет актуальный снимок из памяти под блокировкой партии.
// Запись, начатая позже, всегда видит состояние не старше предыдущей.
func (s *Service) persistWorkOrder(ctx context.Context, id, action string) {
	mu, _ := s.persistMu.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	wo, ok := s.store.Get(id)
	if !ok {
		return
	}

	if err := s.persister.SaveWorkOrder(ctx, wo); err != nil {
		s.log.Error("failed to persist work order",
			slog.String("id", id),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) observeWIP() {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveWIP(s.WipSnapshot())
}
