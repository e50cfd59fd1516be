package handlers

import (
	"log/slog"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/response"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/metrics"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	DashboardSvc    SummaryService
	SettingsSvc     SettingsService
	Metrics         *metrics.Manager

	// CRMConfigured is false when no upstream API token is available;
	// the dashboard endpoint then answers 503 instead of calling out.
	CRMConfigured bool
}
