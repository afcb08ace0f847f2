package get

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"mebel-mes/http-server/response"
	"mebel-mes/internal/storage"
)

type WorkOrderProvider interface {
	GetWorkOrder(id string) (storage.WorkOrder, error)
	ListWorkOrders(filter storage.WorkOrderFilter) []storage.WorkOrder
	QueryByStage(stage storage.ShopStage) ([]storage.WorkOrder, error)
}

func GetWorkOrder(log *slog.Logger, provider WorkOrderProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work_order.GetWorkOrder"

		id := chi.URLParam(r, "id")

		wo, err := provider.GetWorkOrder(id)
		if err != nil {
			response.Error(w, log, op, err)
			return
		}

		render.JSON(w, r, wo)
	}
}

// GetWorkOrders список с фильтрами ?stage=&status=&project_id=
func GetWorkOrders(log *slog.Logger, provider WorkOrderProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work_order.GetWorkOrders"

		q := r.URL.Query()
		filter := storage.WorkOrderFilter{
			Stage:     storage.ShopStage(q.Get("stage")),
			Status:    storage.Status(q.Get("status")),
			ProjectID: q.Get("project_id"),
		}

		if filter.Status != "" && !filter.Status.Valid() {
			log.With(slog.String("op", op), slog.String("status", string(filter.Status))).Warn("unknown status")
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}

		if filter.Stage == "" {
			render.JSON(w, r, provider.ListWorkOrders(filter))
			return
		}

		byStage, err := provider.QueryByStage(filter.Stage)
		if err != nil {
			response.Error(w, log, op, err)
			return
		}

		orders := make([]storage.WorkOrder, 0, len(byStage))
		for _, wo := range byStage {
			if filter.Match(wo) {
				orders = append(orders, wo)
			}
		}

		render.JSON(w, r, orders)
	}
}
