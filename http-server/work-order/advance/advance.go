package advance

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

type StageAdvancer interface {
	AdvanceStage(ctx context.Context, id string) (production.AdvanceResult, storage.WorkOrder, error)
}

type Response struct {
	production.AdvanceResult
	WorkOrder storage.WorkOrder `json:"workOrder"`
}

// AdvanceStage 200 при переходе или завершении, 409 с причиной при блокировке
func AdvanceStage(log *slog.Logger, advancer StageAdvancer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.work_order.AdvanceStage"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, wo, err := advancer.AdvanceStage(ctx, id)
		if err != nil {
			response.Error(w, log, op, err)
			return
		}

		if res.Blocked() {
			log.With(slog.String("op", op)).Info("advance blocked",
				slog.String("id", id),
				slog.String("stage", string(res.From)),
				slog.String("reason", res.Reason),
			)
			render.Status(r, http.StatusConflict)
		}

		render.JSON(w, r, Response{AdvanceResult: res, WorkOrder: wo})
	}
}
