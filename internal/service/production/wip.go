package production

import (
	"math"

	"mebel-mes/internal/storage"
)

type StageLoad struct {
	Stage        storage.ShopStage `json:"stage"`
	Label        string            `json:"label"`
	Active       int               `json:"active"`
	Total        int               `json:"total"`
	Limit        int               `json:"limit"`
	LoadPct      int               `json:"loadPct"`
	OverLimit    bool              `json:"overLimit"`
	PlannedHours float64           `json:"plannedHours"`
	LaborCost    float64           `json:"laborCost"`
}

// WipSnapshot загрузка по настроенным этапам. Считается заново на каждый вызов.
func WipSnapshot(orders []storage.WorkOrder, capacity *Capacity, labels map[storage.ShopStage]string) []StageLoad {
	type acc struct {
		active, total, minutes int
	}

	grouped := make(map[storage.ShopStage]*acc)
	for _, w := range orders {
		a := grouped[w.Stage]
		if a == nil {
			a = &acc{}
			grouped[w.Stage] = a
		}
		a.total++
		if w.Status == storage.StatusInProgress {
			a.active++
		}
		a.minutes += w.TimeMinutes
	}

	stages := capacity.Configured()
	loads := make([]StageLoad, 0, len(stages))

	for _, s := range stages {
		a := grouped[s]
		if a == nil {
			a = &acc{}
		}

		limit := capacity.WipLimit(s)
		hours := float64(a.minutes) / 60

		loads = append(loads, StageLoad{
			Stage:        s,
			Label:        labels[s],
			Active:       a.active,
			Total:        a.total,
			Limit:        limit,
			LoadPct:      LoadPct(a.active, limit),
			OverLimit:    limit > 0 && a.active > limit,
			PlannedHours: hours,
			LaborCost:    hours * capacity.HourRate(s),
		})
	}

	return loads
}

func LoadPct(active, limit int) int {
	if limit <= 0 {
		return 0
	}
	pct := int(math.Round(float64(active) / float64(limit) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
