package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"mebel-mes/http-server/response"
	"mebel-mes/internal/service/production"
	"mebel-mes/internal/storage"
)

type WorkOrderUpdater interface {
	UpdateFields(ctx context.Context, id string, patch production.FieldsPatch) (storage.WorkOrder, error)
	ToggleChecklistItem(ctx context.Context, id, label string, value bool) (storage.WorkOrder, error)
	SetSkipFlags(ctx context.Context, id string, flags production.SkipFlagsPatch) (storage.WorkOrder, error)
}

type FieldsRequest struct {
	ProjectID      *string            `json:"projectId" validate:"omitempty,max=128"`
	Name           *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Assignee       *string            `json:"assignee" validate:"omitempty,max=128"`
	Notes          *string            `json:"notes" validate:"omitempty,max=2000"`
	DueDate        *time.Time         `json:"dueDate"`
	PlanStart      *time.Time         `json:"planStart"`
	PlanEnd        *time.Time         `json:"planEnd"`
	PackingListURL *string            `json:"packingListUrl" validate:"omitempty,max=2048"`
	Photos         []string           `json:"photos" validate:"omitempty,dive,required,max=2048"`
	MaterialsReady *bool              `json:"materialsReady"`
	Status         *storage.Status    `json:"status" validate:"omitempty,oneof=QUEUED REWORK"`
	Stage          *storage.ShopStage `json:"stage" validate:"omitempty,oneof=PURCHASE CUT_CNC EDGE DRILL SANDING PAINT QA_PACK"`
}

type ChecklistRequest struct {
	Item  string `json:"item" validate:"required,max=255"`
	Value bool   `json:"value"`
}

type SkipFlagsRequest struct {
	NoDrill *bool `json:"noDrill" validate:"required_without=NoPaint"`
	NoPaint *bool `json:"noPaint" validate:"required_without=NoDrill"`
}

func UpdateWorkOrder(log *slog.Logger, updater WorkOrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work_order.UpdateWorkOrder"

		id := chi.URLParam(r, "id")

		var req FieldsRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Warn("failed to decode body")
			http.Error(w, "ошибка парсинга JSON", http.StatusBadRequest)
			return
		}

		if err := response.Validate(req); err != nil {
			response.ValidationError(w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wo, err := updater.UpdateFields(ctx, id, production.FieldsPatch{
			ProjectID:      req.ProjectID,
			Name:           req.Name,
			Assignee:       req.Assignee,
			Notes:          req.Notes,
			DueDate:        req.DueDate,
			PlanStart:      req.PlanStart,
			PlanEnd:        req.PlanEnd,
			PackingListURL: req.PackingListURL,
			Photos:         req.Photos,
			MaterialsReady: req.MaterialsReady,
			Status:         req.Status,
			Stage:          req.Stage,
		})
		if err != nil {
			response.Error(w, log, op, err)
			return
		}

		render.JSON(w, r, wo)
	}
}

func ToggleChecklist(log *slog.Logger, updater WorkOrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work_order.ToggleChecklist"

		id := chi.URLParam(r, "id")

		var req ChecklistRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			http.Error(w, "ошибка парсинга JSON", http.StatusBadRequest)
			return
		}

		if err := response.Validate(req); err != nil {
			response.ValidationError(w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wo, err := updater.ToggleChecklistItem(ctx, id, req.Item, req.Value)
		if err != nil {
			response.Error(w, log, op, err)
			return
		}

		render.JSON(w, r, wo)
	}
}

func SetSkipFlags(log *slog.Logger, updater WorkOrderUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work_order.SetSkipFlags"

		id := chi.URLParam(r, "id")

		var req SkipFlagsRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			http.Error(w, "ошибка парсинга JSON", http.StatusBadRequest)
			return
		}

		if err := response.Validate(req); err != nil {
			response.ValidationError(w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wo, err := updater.SetSkipFlags(ctx, id, production.SkipFlagsPatch{
			NoDrill: req.NoDrill,
			NoPaint: req.NoPaint,
		})
		if err != nil {
			response.Error(w, log, op, err)
			return
		}

		render.JSON(w, r, wo)
	}
}
