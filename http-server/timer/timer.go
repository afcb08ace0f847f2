package timer

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"mebel-mes/http-server/response"
	"mebel-mes/internal/service/production"
)

type TimerController interface {
	StartTimer(ctx context.Context, id string) (production.TimerResult, error)
	StopTimer(ctx context.Context, id string) (production.TimerResult, error)
}

func StartTimer(log *slog.Logger, tc TimerController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timer.StartTimer"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := tc.StartTimer(ctx, id)
		if err != nil {
			response.Error(w, log, op, err)
			return
		}

		if !res.OK {
			response.Conflict(w, r, res.Reason, &res.WorkOrder)
			return
		}

		render.JSON(w, r, res)
	}
}

func StopTimer(log *slog.Logger, tc TimerController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timer.StopTimer"

		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := tc.StopTimer(ctx, id)
		if err != nil {
			response.Error(w, log, op, err)
			return
		}
		if !res.OK {
			response.Conflict(w, r, res.Reason, &res.WorkOrder)
			return
		}

		log.With(slog.String("op", op)).Debug("timer stopped",
			slog.String("id", id),
			slog.Int("delta_minutes", res.DeltaMinutes),
		)

		render.JSON(w, r, res)
	}
}
