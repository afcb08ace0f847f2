package get

import (
	"net/http"

	"github.com/go-chi/render"

	"mebel-mes/internal/constants"
	"mebel-mes/internal/service/production"
	"mebel-mes/internal/storage"
)

type CapacityProvider interface {
	Catalog() *production.Catalog
	Capacity() *production.Capacity
}

type StageSettings struct {
	Stage      storage.ShopStage `json:"stage"`
	Label      string            `json:"label"`
	Configured bool              `json:"configured"`
	WipLimit   int               `json:"wipLimit"`
	HourRate   float64           `json:"hourRate"`
	Checklist  []string          `json:"checklist"`
}

// GetCapacityAdmin этапы в порядке маршрута с лимитами, ставками и шаблонами чек-листов
func GetCapacityAdmin(p CapacityProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog := p.Catalog()
		capacity := p.Capacity()
		all := capacity.All()

		stages := catalog.Stages()
		out := make([]StageSettings, 0, len(stages))
		for _, s := range stages {
			_, configured := all[s]
			out = append(out, StageSettings{
				Stage:      s,
				Label:      constants.StageLabels[s],
				Configured: configured,
				WipLimit:   capacity.WipLimit(s),
				HourRate:   capacity.HourRate(s),
				Checklist:  catalog.DefaultChecklist(s),
			})
		}

		render.JSON(w, r, out)
	}
}
