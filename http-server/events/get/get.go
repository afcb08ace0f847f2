package get

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"mebel-mes/internal/storage"
)

const defaultLimit = 50

type EventsProvider interface {
	Events(limit int) []storage.Event
}

// GetEvents хвост журнала, новые первыми. ?limit= по умолчанию 50.
func GetEvents(log *slog.Logger, events EventsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.GetEvents"

		limit := defaultLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				log.With(slog.String("op", op), slog.String("limit", s)).Warn("invalid limit")
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		render.JSON(w, r, events.Events(limit))
	}
}
