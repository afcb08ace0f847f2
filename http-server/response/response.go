package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"mebel-mes/internal/service/production"
	"mebel-mes/internal/storage"
)

type Blocked struct {
	OK        bool               `json:"ok"`
	Reason    string             `json:"reason"`
	WorkOrder *storage.WorkOrder `json:"workOrder,omitempty"`
}

// Error переводит ошибку сервиса в HTTP статус. 500 логируется с op.
func Error(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrWorkOrderNotFound):
		log.With(slog.String("op", op)).Warn("work order not found", slog.String("error", err.Error()))
		http.Error(w, "Work order not found", http.StatusNotFound)
	case errors.Is(err, production.ErrInvalidField):
		log.With(slog.String("op", op)).Warn("invalid request", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.With(slog.String("op", op), slog.String("error", err.Error())).Error("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Conflict бизнес-блокировка: 409 и причина в теле
func Conflict(w http.ResponseWriter, r *http.Request, reason string, wo *storage.WorkOrder) {
	render.Status(r, http.StatusConflict)
	render.JSON(w, r, Blocked{Reason: reason, WorkOrder: wo})
}

// ValidationError 400 со списком полей
func ValidationError(w http.ResponseWriter, err error) {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", e.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", e.Field()))
		}
	}

	http.Error(w, strings.Join(msgs, ", "), http.StatusBadRequest)
}
