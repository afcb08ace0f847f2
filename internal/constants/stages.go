package constants

import "mebel-mes/internal/storage"

// StageOrder порядок этапов цеха, определяет путь партии по умолчанию
var StageOrder = []storage.ShopStage{
	storage.StagePurchase,
	storage.StageCutCNC,
	storage.StageEdge,
	storage.StageDrill,
	storage.StageSanding,
	storage.StagePaint,
	storage.StageQAPack,
}

var StageLabels = map[storage.ShopStage]string{
	storage.StagePurchase: "Закупка",
	storage.StageCutCNC:   "Раскрой/ЧПУ",
	storage.StageEdge:     "Кромка",
	storage.StageDrill:    "Присадка",
	storage.StageSanding:  "Шлифовка",
	storage.StagePaint:    "Покраска",
	storage.StageQAPack:   "Приёмка/Упаковка",
}

// чек-листы по этапам
var ChecklistByStage = map[storage.ShopStage][]string{
	storage.StagePurchase: {"Счет оплачен", "Материал в наличии/резерв", "ETA занесена"},
	storage.StageCutCNC:   {"Проверен раскрой", "Пилы/фрезы ок", "Контроль размеров"},
	storage.StageEdge:     {"Толщина/цвет кромки", "Снятие фаски", "Шов без дефектов"},
	storage.StageDrill:    {"Сверловка по карте", "Крепеж соответствует", "Контроль чистоты"},
	storage.StageSanding:  {"Зерно по карте", "Притупление кромок", "Обезпыление"},
	storage.StagePaint:    {"Грунт/слои по ТП", "Режим камеры соблюден", "Цвет совпадает с выкрасом"},
	storage.StageQAPack:   {"Комплектность по packing list", "Защита углов/кромок", "Фото комплектации"},
}

// Лимиты WIP и ставка н/час по умолчанию. Закупка не ограничена.
var WipLimits = map[storage.ShopStage]int{
	storage.StageCutCNC:  5,
	storage.StageEdge:    6,
	storage.StageDrill:   4,
	storage.StageSanding: 5,
	storage.StagePaint:   3,
	storage.StageQAPack:  8,
}

var HourRates = map[storage.ShopStage]float64{
	storage.StageCutCNC:  800,
	storage.StageEdge:    700,
	storage.StageDrill:   600,
	storage.StageSanding: 500,
	storage.StagePaint:   900,
	storage.StageQAPack:  400,
}
