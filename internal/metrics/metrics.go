package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mebel-mes/internal/service/production"
)

const namespace = "mes"

type Metrics struct {
	registry *prometheus.Registry

	EventsTotal   *prometheus.CounterVec
	AdvanceTotal  *prometheus.CounterVec
	WipActive     *prometheus.GaugeVec
	WipLoad       *prometheus.GaugeVec
	WipLimit      *prometheus.GaugeVec
	StageOrders   *prometheus.GaugeVec
	StageHours    *prometheus.GaugeVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Domain events emitted by action",
		}, []string{"action"}),
		AdvanceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advance_total",
			Help:      "Stage advance attempts by outcome",
		}, []string{"outcome"}),
		WipActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wip_active",
			Help:      "Work orders in progress per stage",
		}, []string{"stage"}),
		WipLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wip_load_percent",
			Help:      "Stage load against WIP limit, clamped to 100",
		}, []string{"stage"}),
		WipLimit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wip_limit",
			Help:      "Configured WIP limit per stage, 0 means unconstrained",
		}, []string{"stage"}),
		StageOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_work_orders",
			Help:      "Work orders at stage in any status",
		}, []string{"stage"}),
		StageHours: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_labor_hours",
			Help:      "Accumulated labor hours of work orders at stage",
		}, []string{"stage"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status",
		}, []string{"method", "status"}),
		HTTPDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(
		m.EventsTotal, m.AdvanceTotal,
		m.WipActive, m.WipLoad, m.WipLimit, m.StageOrders, m.StageHours,
		m.HTTPRequests, m.HTTPDurations,
	)

	return m
}

func (m *Metrics) ObserveEvent(action string) {
	m.EventsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveAdvance(outcome string) {
	m.AdvanceTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveWIP(loads []production.StageLoad) {
	for _, l := range loads {
		stage := string(l.Stage)
		m.WipActive.WithLabelValues(stage).Set(float64(l.Active))
		m.WipLoad.WithLabelValues(stage).Set(float64(l.LoadPct))
		m.WipLimit.WithLabelValues(stage).Set(float64(l.Limit))
		m.StageOrders.WithLabelValues(stage).Set(float64(l.Total))
		m.StageHours.WithLabelValues(stage).Set(l.PlannedHours)
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware считает запросы; статус берётся из обёртки chi
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		m.HTTPDurations.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
