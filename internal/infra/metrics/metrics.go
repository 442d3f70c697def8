package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	BackendRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Длительность запросов к бэкенду автоматизации",
		Buckets: prometheus.DefBuckets,
	}, []string{"action", "status"})

	BackendRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_request_total",
		Help: "Количество запросов к бэкенду автоматизации",
	}, []string{"action", "status"})

	DashboardActionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_action_total",
		Help: "Действия оператора на дашборде",
	}, []string{"action", "outcome"})

	PageRenderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_page_render_total",
		Help: "Отрисовки страниц дашборда",
	}, []string{"page"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		BackendRequestDuration,
		BackendRequestTotal,
		DashboardActionTotal,
		PageRenderTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveBackendRequest записывает длительность и статус обращения к бэкенду.
func ObserveBackendRequest(action string, start time.Time, err error) {
	if action == "" {
		action = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	BackendRequestDuration.WithLabelValues(action, status).Observe(duration)
	BackendRequestTotal.WithLabelValues(action, status).Inc()
}

// IncDashboardAction увеличивает счётчик действий оператора.
func IncDashboardAction(action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	DashboardActionTotal.WithLabelValues(action, outcome).Inc()
}
