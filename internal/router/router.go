package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/handlers"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics).MetricsMiddleware)
	r.Use(middleware.CORS)

	dh := handlers.NewDashboardHandlers(deps)
	sh := handlers.NewSettingsHandlers(deps)

	r.Mount("/api/dashboard", dh.DashboardRoutes())
	r.Mount("/api/settings", sh.SettingsRoutes())
	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
