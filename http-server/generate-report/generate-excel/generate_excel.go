package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mebel-mes/internal/storage"
)

type ExcelGenerator interface {
	GenerateExcel(ctx context.Context, filter storage.WorkOrderFilter) ([]byte, error)
}

// GenerateReportExcel ?stage=&status=&project_id=
func GenerateReportExcel(log *slog.Logger, gen ExcelGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.report.GenerateReportExcel"

		q := r.URL.Query()
		filter := storage.WorkOrderFilter{
			Stage:     storage.ShopStage(q.Get("stage")),
			Status:    storage.Status(q.Get("status")),
			ProjectID: q.Get("project_id"),
		}

		if filter.Status != "" && !filter.Status.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, filter)
		if err != nil {
			log.Error("failed to generate excel", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("MES_Report_%s.xlsx", time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		_, _ = w.Write(excelBytes)
	}
}
