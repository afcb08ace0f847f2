package get

import (
	"net/http"

	"github.com/go-chi/render"

	"mebel-mes/internal/service/production"
)

type WipProvider interface {
	WipSnapshot() []production.StageLoad
}

func GetWip(wip WipProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, wip.WipSnapshot())
	}
}
