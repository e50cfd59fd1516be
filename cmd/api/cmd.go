package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/bootstrap"
	mondayclient "github.com/jackjack22202/carbonweb-sales-dashboard/internal/client/monday"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/config"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/handlers"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/response"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/router"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/services"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/store"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/metrics"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// metrics
	mm := metrics.New(metrics.WithNamespace("salesdash"))

	// settings backend
	sserv := services.NewSettingsService(nil)
	switch cfg.SettingsBackend {
	case "firestore":
		sserv = services.NewSettingsService(store.NewSettingsStore(bs.Firestore))
	case "sqlite":
		sqlStore, err := store.NewSQLiteSettingsStore(cfg.SQLitePath)
		exitOnError("sqlite open failed", err, bs.Log)
		defer sqlStore.Close()
		sserv = services.NewSettingsService(sqlStore)
	}

	// CRM adapter
	monday := mondayclient.NewAdapter(mondayclient.Options{
		URL:           cfg.MondayURL,
		Token:         bs.MondayToken,
		APIVersion:    cfg.MondayAPIVersion,
		DealsBoardID:  cfg.DealsBoardID,
		ScopesBoardID: cfg.ScopesBoardID,
		Columns:       cfg.Columns,
		Metrics:       mm,
	})

	// services
	cache := services.NewSummaryCache(time.Duration(cfg.SummaryTTLSeconds)*time.Second, mm)
	// A typed nil adapter must not reach the service; nil means
	// enrichment stays off.
	dserv := services.NewDashboardService(monday, sserv, nil, cache, cfg.Columns, mm)
	if bs.VertexAdapter != nil {
		dserv = services.NewDashboardService(monday, sserv, bs.VertexAdapter, cache, cfg.Columns, mm)
	}

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.DashboardSvc = dserv
	deps.SettingsSvc = sserv
	deps.Metrics = mm
	deps.CRMConfigured = bs.MondayToken != ""

	// router
	r := router.NewRouter(deps)
	bs.Log.Info("listening", "addr", cfg.Addr)
	err = http.ListenAndServe(cfg.Addr, r)
	exitOnError("server start failed", err, bs.Log)
}
