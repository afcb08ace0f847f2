package storage

import (
	"errors"
	"time"
)

var ErrWorkOrderNotFound = errors.New("work order not found")

type ShopStage string

const (
	StagePurchase ShopStage = "PURCHASE"
	StageCutCNC   ShopStage = "CUT_CNC"
	StageEdge     ShopStage = "EDGE"
	StageDrill    ShopStage = "DRILL"
	StageSanding  ShopStage = "SANDING"
	StagePaint    ShopStage = "PAINT"
	StageQAPack   ShopStage = "QA_PACK"
)

type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusRework     Status = "REWORK"
)

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusDone, StatusRework:
		return true
	}
	return false
}

type SkipFlags struct {
	NoDrill bool `json:"noDrill,omitempty"`
	NoPaint bool `json:"noPaint,omitempty"`
}

// WorkOrder партия/узел, проходящий этапы цеха.
// TimerStartAt (epoch ms) заполнен только пока идёт таймер.
type WorkOrder struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Stage     ShopStage `json:"stage"`
	Status    Status    `json:"status"`

	PlanStart   *time.Time `json:"planStart,omitempty"`
	PlanEnd     *time.Time `json:"planEnd,omitempty"`
	ActualStart *time.Time `json:"actualStart,omitempty"`
	ActualEnd   *time.Time `json:"actualEnd,omitempty"`

	TimeMinutes  int    `json:"timeMinutes"`
	TimerStartAt *int64 `json:"timerStartAt,omitempty"`

	Checklist      map[string]bool `json:"checklist"`
	MaterialsReady *bool           `json:"materialsReady,omitempty"`
	SkipFlags      SkipFlags       `json:"skipFlags"`

	PackingListURL string   `json:"packingListUrl,omitempty"`
	Photos         []string `json:"photos,omitempty"`

	Assignee string     `json:"assignee,omitempty"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
	Notes    string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w WorkOrder) TimerRunning() bool {
	return w.TimerStartAt != nil
}

// Clone возвращает глубокую копию: чек-лист, фото и указатели не разделяются.
func (w WorkOrder) Clone() WorkOrder {
	c := w

	if w.Checklist != nil {
		c.Checklist = make(map[string]bool, len(w.Checklist))
		for k, v := range w.Checklist {
			c.Checklist[k] = v
		}
	}
	if w.Photos != nil {
		c.Photos = append([]string(nil), w.Photos...)
	}

	c.PlanStart = cloneTime(w.PlanStart)
	c.PlanEnd = cloneTime(w.PlanEnd)
	c.ActualStart = cloneTime(w.ActualStart)
	c.ActualEnd = cloneTime(w.ActualEnd)
	c.DueDate = cloneTime(w.DueDate)

	if w.TimerStartAt != nil {
		v := *w.TimerStartAt
		c.TimerStartAt = &v
	}
	if w.MaterialsReady != nil {
		v := *w.MaterialsReady
		c.MaterialsReady = &v
	}

	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type WorkOrderFilter struct {
	Stage     ShopStage
	Status    Status
	ProjectID string
}

func (f WorkOrderFilter) Match(w WorkOrder) bool {
	if f.Stage != "" && w.Stage != f.Stage {
		return false
	}
	if f.Status != "" && w.Status != f.Status {
		return false
	}
	if f.ProjectID != "" && w.ProjectID != f.ProjectID {
		return false
	}
	return true
}
