package production

import "mebel-mes/internal/storage"

type Outcome string

const (
	OutcomeStageChanged Outcome = "stage-changed"
	OutcomeBlocked      Outcome = "blocked"
	OutcomeCompleted    Outcome = "completed"
)

const (
	ReasonChecklistIncomplete = "checklist incomplete"
	ReasonPackingEvidence     = "packing evidence missing"
	ReasonAlreadyDone         = "work order already done"
	ReasonUnknownStage        = "unknown stage"
	ReasonTimerRunning        = "timer already running"
	ReasonMaterialsNotReady   = "materials not ready"
)

type AdvanceResult struct {
	Outcome Outcome           `json:"outcome"`
	Reason  string            `json:"reason,omitempty"`
	From    storage.ShopStage `json:"from"`
	To      storage.ShopStage `json:"to,omitempty"`
}

func (r AdvanceResult) Blocked() bool {
	return r.Outcome == OutcomeBlocked
}

// Engine единственное место, где меняется stage партии
type Engine struct {
	catalog *Catalog
	// чек-лист нового этапа заменяет старый при переходе
	reseed bool
}

func NewEngine(catalog *Catalog, reseedChecklist bool) *Engine {
	return &Engine{catalog: catalog, reseed: reseedChecklist}
}

// Advance переводит партию на следующий этап с учётом флагов пропуска.
// При blocked партия не меняется.
func (e *Engine) Advance(wo *storage.WorkOrder) AdvanceResult {
	res := AdvanceResult{From: wo.Stage}

	if reason := e.CanAdvance(*wo); reason != "" {
		res.Outcome = OutcomeBlocked
		res.Reason = reason
		return res
	}

	stages := e.catalog.Stages()
	next := e.catalog.Index(wo.Stage) + 1

	for next < len(stages) && skipped(stages[next], wo.SkipFlags) {
		next++
	}

	if next >= len(stages) {
		wo.Status = storage.StatusDone
		res.Outcome = OutcomeCompleted
		res.To = wo.Stage
		return res
	}

	wo.Stage = stages[next]
	wo.Status = storage.StatusQueued
	if e.reseed {
		wo.Checklist = e.catalog.SeedChecklist(wo.Stage)
	}

	res.Outcome = OutcomeStageChanged
	res.To = wo.Stage
	return res
}

// CanAdvance причина блокировки или пустая строка
func (e *Engine) CanAdvance(wo storage.WorkOrder) string {
	if wo.Status == storage.StatusDone {
		return ReasonAlreadyDone
	}

	for _, done := range wo.Checklist {
		if !done {
			return ReasonChecklistIncomplete
		}
	}

	if wo.Stage == storage.StageQAPack && (wo.PackingListURL == "" || len(wo.Photos) < 1) {
		return ReasonPackingEvidence
	}

	if !e.catalog.Valid(wo.Stage) {
		return ReasonUnknownStage
	}

	return ""
}

func skipped(stage storage.ShopStage, flags storage.SkipFlags) bool {
	switch stage {
	case storage.StageDrill:
		return flags.NoDrill
	case storage.StageSanding, storage.StagePaint:
		return flags.NoPaint
	}
	return false
}
