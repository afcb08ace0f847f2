package generate_excel

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"mebel-mes/internal/constants"
	"mebel-mes/internal/service/production"
	"mebel-mes/internal/storage"
)

const (
	SheetOrders = "Партии"
	SheetLoad   = "Загрузка участков"
)

type ReportSource interface {
	ListWorkOrders(filter storage.WorkOrderFilter) []storage.WorkOrder
	WipSnapshot() []production.StageLoad
}

type GenerateExcelService struct {
	source ReportSource
}

func NewGenerateService(source ReportSource) *GenerateExcelService {
	return &GenerateExcelService{source: source}
}

// GenerateExcel два листа: партии по фильтру и загрузка участков
func (g *GenerateExcelService) GenerateExcel(ctx context.Context, filter storage.WorkOrderFilter) ([]byte, error) {
	const op = "service.generate_excel.GenerateExcel"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders := g.source.ListWorkOrders(filter)
	loads := g.source.WipSnapshot()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOrders); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.NewSheet(SheetLoad); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	overStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F8CBAD"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ordersHeaders := []string{"ID", "Проект", "Наименование", "Этап", "Статус", "Исполнитель",
		"Срок", "Минут", "Н/час", "Без присадки", "Без покраски", "Чек-лист"}
	writeHeader(f, SheetOrders, ordersHeaders, headerStyle)

	for i, wo := range orders {
		row := i + 2
		values := []any{
			wo.ID,
			wo.ProjectID,
			wo.Name,
			stageLabel(wo.Stage),
			string(wo.Status),
			wo.Assignee,
			formatDate(wo.DueDate),
			wo.TimeMinutes,
			float64(wo.TimeMinutes) / 60,
			yesNo(wo.SkipFlags.NoDrill),
			yesNo(wo.SkipFlags.NoPaint),
			checklistProgress(wo.Checklist),
		}
		if err := f.SetSheetRow(SheetOrders, cellName(1, row), &values); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, row, err)
		}
	}

	loadHeaders := []string{"Этап", "В работе", "Всего", "Лимит WIP", "Загрузка, %", "Н/час", "Н/руб"}
	writeHeader(f, SheetLoad, loadHeaders, headerStyle)

	for i, l := range loads {
		row := i + 2
		values := []any{l.Label, l.Active, l.Total, l.Limit, l.LoadPct, l.PlannedHours, l.LaborCost}
		if err := f.SetSheetRow(SheetLoad, cellName(1, row), &values); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, row, err)
		}
		if l.OverLimit {
			_ = f.SetCellStyle(SheetLoad, cellName(1, row), cellName(len(loadHeaders), row), overStyle)
		}
	}

	for _, sheet := range []string{SheetOrders, SheetLoad} {
		_ = f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
		})
	}
	_ = f.SetColWidth(SheetOrders, "A", "L", 16)
	_ = f.SetColWidth(SheetLoad, "A", "G", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, name := range headers {
		_ = f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	_ = f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), style)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func stageLabel(stage storage.ShopStage) string {
	if label, ok := constants.StageLabels[stage]; ok {
		return label
	}
	return string(stage)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02.01.2006")
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return ""
}

// checklistProgress "2/3"
func checklistProgress(checklist map[string]bool) string {
	done := 0
	for _, v := range checklist {
		if v {
			done++
		}
	}
	return fmt.Sprintf("%d/%d", done, len(checklist))
}
