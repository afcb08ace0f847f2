package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"mebel-mes/http-server/response"
	"mebel-mes/internal/service/production"
	"mebel-mes/internal/storage"
)

type WorkOrderCreator interface {
	CreateWorkOrder(ctx context.Context, req production.CreateRequest) (storage.WorkOrder, error)
}

type Request struct {
	ProjectID      string            `json:"projectId" validate:"max=128"`
	Name           string            `json:"name" validate:"max=255"`
	Stage          storage.ShopStage `json:"stage" validate:"omitempty,oneof=PURCHASE CUT_CNC EDGE DRILL SANDING PAINT QA_PACK"`
	Assignee       string            `json:"assignee" validate:"max=128"`
	DueDate        *time.Time        `json:"dueDate"`
	PlanStart      *time.Time        `json:"planStart"`
	PlanEnd        *time.Time        `json:"planEnd"`
	Notes          string            `json:"notes" validate:"max=2000"`
	MaterialsReady *bool             `json:"materialsReady"`
	SkipFlags      storage.SkipFlags `json:"skipFlags"`
	Checklist      map[string]bool   `json:"checklist" validate:"omitempty,dive,keys,required,endkeys"`
}

func SaveWorkOrder(log *slog.Logger, creator WorkOrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work_order.SaveWorkOrder"

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Warn("failed to decode body")
			http.Error(w, "ошибка парсинга JSON", http.StatusBadRequest)
			return
		}

		if err := response.Validate(req); err != nil {
			response.ValidationError(w, err)
			return
		}

		if req.PlanStart != nil && req.PlanEnd != nil && req.PlanEnd.Before(*req.PlanStart) {
			http.Error(w, "planEnd раньше planStart", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		wo, err := creator.CreateWorkOrder(ctx, production.CreateRequest{
			ProjectID:      req.ProjectID,
			Name:           req.Name,
			Stage:          req.Stage,
			Assignee:       req.Assignee,
			DueDate:        req.DueDate,
			PlanStart:      req.PlanStart,
			PlanEnd:        req.PlanEnd,
			Notes:          req.Notes,
			MaterialsReady: req.MaterialsReady,
			SkipFlags:      req.SkipFlags,
			Checklist:      req.Checklist,
		})
		if err != nil {
			response.Error(w, log, op, err)
			return
		}

		log.Info("work order created", slog.String("id", wo.ID), slog.String("stage", string(wo.Stage)))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, wo)
	}
}
