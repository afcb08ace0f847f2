package production

import (
	"mebel-mes/internal/config"
	"mebel-mes/internal/constants"
	"mebel-mes/internal/storage"
)

type StageCapacity struct {
	WipLimit int     `json:"wipLimit"`
	HourRate float64 `json:"hourRate"`
}

// Capacity лимиты WIP и ставки по этапам. Лимит 0 или отсутствие записи — без ограничения.
type Capacity struct {
	stages     map[storage.ShopStage]StageCapacity
	configured []storage.ShopStage
}

func NewCapacity(catalog *Catalog, stages map[storage.ShopStage]StageCapacity) *Capacity {
	c := &Capacity{stages: make(map[storage.ShopStage]StageCapacity, len(stages))}

	for stage, sc := range stages {
		if sc.WipLimit < 0 {
			sc.WipLimit = 0
		}
		if sc.HourRate < 0 {
			sc.HourRate = 0
		}
		c.stages[stage] = sc
	}

	for _, s := range catalog.Stages() {
		if _, ok := c.stages[s]; ok {
			c.configured = append(c.configured, s)
		}
	}

	return c
}

func CapacityFromConfig(catalog *Catalog, cfg config.Production) *Capacity {
	stages := make(map[storage.ShopStage]StageCapacity)

	if len(cfg.Stages) == 0 {
		for s, limit := range constants.WipLimits {
			stages[s] = StageCapacity{WipLimit: limit, HourRate: constants.HourRates[s]}
		}
		return NewCapacity(catalog, stages)
	}

	for key, sc := range cfg.Stages {
		stages[storage.ShopStage(key)] = StageCapacity{WipLimit: sc.WipLimit, HourRate: sc.HourRate}
	}

	return NewCapacity(catalog, stages)
}

func (c *Capacity) WipLimit(stage storage.ShopStage) int {
	return c.stages[stage].WipLimit
}

func (c *Capacity) HourRate(stage storage.ShopStage) float64 {
	return c.stages[stage].HourRate
}

// Configured этапы с записью в конфиге, в порядке каталога
func (c *Capacity) Configured() []storage.ShopStage {
	return append([]storage.ShopStage(nil), c.configured...)
}

func (c *Capacity) All() map[storage.ShopStage]StageCapacity {
	out := make(map[storage.ShopStage]StageCapacity, len(c.stages))
	for k, v := range c.stages {
		out[k] = v
	}
	return out
}
