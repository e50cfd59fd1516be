package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/dto"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/errs"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/response"
)

// SummaryService builds the dashboard payload, reporting whether it was
// served from the cache.
type SummaryService interface {
	GetSummary(ctx context.Context, minThresholdOverride *float64) (*dto.SummaryResponse, bool, error)
}

type dashboardHandlers struct {
	responseHandler response.ResponseHandler
	dashboardSvc    SummaryService
	crmConfigured   bool
}

func NewDashboardHandlers(deps *Deps) *dashboardHandlers {
	return &dashboardHandlers{
		responseHandler: deps.ResponseHandler,
		dashboardSvc:    deps.DashboardSvc,
		crmConfigured:   deps.CRMConfigured,
	}
}

func (h *dashboardHandlers) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetDashboard)
	return r
}

func (h *dashboardHandlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if !h.crmConfigured {
		h.responseHandler.HandleError(w, r, errs.NewMisconfiguredError("CRM API token is not configured"))
		return
	}

	var override *float64
	if raw := r.URL.Query().Get("minDealValue"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			h.responseHandler.HandleError(w, r, errs.NewValidationError("minDealValue must be a non-negative number"))
			return
		}
		override = &v
	}

	summary, hit, err := h.dashboardSvc.GetSummary(r.Context(), override)
	if err != nil {
		h.responseHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "public, s-maxage=120, stale-while-revalidate=300")
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	h.responseHandler.WriteSuccess(w, r, http.StatusOK, summary)
}
