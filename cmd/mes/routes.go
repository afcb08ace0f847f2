package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	getadmin "mebel-mes/http-server/admin/get"
	getevents "mebel-mes/http-server/events/get"
	generate_excel "mebel-mes/http-server/generate-report/generate-excel"
	"mebel-mes/http-server/timer"
	getwip "mebel-mes/http-server/wip/get"
	"mebel-mes/http-server/work-order/advance"
	getorder "mebel-mes/http-server/work-order/get"
	saveorder "mebel-mes/http-server/work-order/save"
	uporder "mebel-mes/http-server/work-order/update"
	"mebel-mes/internal/config"
	"mebel-mes/internal/metrics"
	"mebel-mes/internal/middleware/auth"
	generate_excel2 "mebel-mes/internal/service/generate-excel"
	"mebel-mes/internal/service/production"
)

var defaultOrigins = []string{"http://localhost:8081", "http://localhost:5173"}

func routes(cfg config.Config, log *slog.Logger, svc *production.Service, m *metrics.Metrics) *chi.Mux {
	router := chi.NewRouter()

	origins := cfg.HTTPServer.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.HeaderUser},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(m.Middleware)
	router.Use(auth.Actor)

	router.Handle("/metrics", m.Handler())

	router.Route("/api/work-orders", func(r chi.Router) {
		r.Get("/", getorder.GetWorkOrders(log, svc))
		r.Post("/", saveorder.SaveWorkOrder(log, svc))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getorder.GetWorkOrder(log, svc))
			r.Put("/", uporder.UpdateWorkOrder(log, svc))
			r.Put("/checklist", uporder.ToggleChecklist(log, svc))
			r.Put("/skip-flags", uporder.SetSkipFlags(log, svc))
			r.Post("/advance", advance.AdvanceStage(log, svc))
			r.Post("/timer/start", timer.StartTimer(log, svc))
			r.Post("/timer/stop", timer.StopTimer(log, svc))
		})
	})

	router.Get("/api/wip", getwip.GetWip(svc))
	router.Get("/api/events", getevents.GetEvents(log, svc))

	genService := generate_excel2.NewGenerateService(svc)
	router.Get("/api/report/excel", generate_excel.GenerateReportExcel(log, genService))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))
	adminRouter.Get("/capacity", getadmin.GetCapacityAdmin(svc))

	router.Mount("/api/admin", adminRouter)

	mountFrontend(router, log, cfg.FrontendDir)

	return router
}

// mountFrontend отдаёт собранный фронт, если папка есть
func mountFrontend(router chi.Router, log *slog.Logger, frontendDir string) {
	if frontendDir == "" {
		return
	}
	if _, err := os.Stat(frontendDir); os.IsNotExist(err) {
		log.Warn("Папка фронтенда не найдена", slog.String("path", frontendDir))
		return
	}

	fileServer := http.FileServer(http.Dir(frontendDir))

	router.Handle("/assets/*", fileServer)
	router.Handle("/js/*", fileServer)
	router.Handle("/css/*", fileServer)
	router.Handle("/img/*", fileServer)

	// SPA: несуществующий путь отдаёт index.html
	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(frontendDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
	})
}
