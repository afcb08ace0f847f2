package production

import (
	"mebel-mes/internal/config"
	"mebel-mes/internal/constants"
	"mebel-mes/internal/storage"
)

// Catalog порядок этапов и шаблоны чек-листов. Только чтение после создания.
type Catalog struct {
	order     []storage.ShopStage
	index     map[storage.ShopStage]int
	templates map[storage.ShopStage][]string
}

func NewCatalog(templates map[storage.ShopStage][]string) *Catalog {
	c := &Catalog{
		order:     append([]storage.ShopStage(nil), constants.StageOrder...),
		index:     make(map[storage.ShopStage]int, len(constants.StageOrder)),
		templates: make(map[storage.ShopStage][]string, len(templates)),
	}

	for i, s := range c.order {
		c.index[s] = i
	}

	for stage, labels := range templates {
		c.templates[stage] = append([]string(nil), labels...)
	}

	return c
}

// CatalogFromConfig берёт чек-листы из конфига; если ни одного нет — встроенные шаблоны.
func CatalogFromConfig(cfg config.Production) *Catalog {
	templates := make(map[storage.ShopStage][]string)
	for key, sc := range cfg.Stages {
		if len(sc.Checklist) > 0 {
			templates[storage.ShopStage(key)] = sc.Checklist
		}
	}

	if len(templates) == 0 {
		return NewCatalog(constants.ChecklistByStage)
	}

	return NewCatalog(templates)
}

func (c *Catalog) Stages() []storage.ShopStage {
	return append([]storage.ShopStage(nil), c.order...)
}

func (c *Catalog) Index(stage storage.ShopStage) int {
	i, ok := c.index[stage]
	if !ok {
		return -1
	}
	return i
}

func (c *Catalog) Valid(stage storage.ShopStage) bool {
	_, ok := c.index[stage]
	return ok
}

func (c *Catalog) DefaultChecklist(stage storage.ShopStage) []string {
	return append([]string{}, c.templates[stage]...)
}

func (c *Catalog) SeedChecklist(stage storage.ShopStage) map[string]bool {
	labels := c.templates[stage]

	checklist := make(map[string]bool, len(labels))
	for _, l := range labels {
		checklist[l] = false
	}

	return checklist
}
