package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/dto"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/errs"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/response"
)

// SettingsService reads and updates the persisted dashboard settings.
type SettingsService interface {
	Get(ctx context.Context) dto.SettingsResponse
	Update(ctx context.Context, req dto.UpdateSettingsRequest) (dto.SettingsResponse, error)
}

type settingsHandlers struct {
	responseHandler response.ResponseHandler
	settingsSvc     SettingsService
}

func NewSettingsHandlers(deps *Deps) *settingsHandlers {
	return &settingsHandlers{
		responseHandler: deps.ResponseHandler,
		settingsSvc:     deps.SettingsSvc,
	}
}

func (h *settingsHandlers) SettingsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetSettings)
	r.Post("/", h.UpdateSettings)
	return r
}

func (h *settingsHandlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	resp := h.settingsSvc.Get(r.Context())
	h.responseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func (h *settingsHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responseHandler.HandleError(w, r, errs.NewValidationError("request body must be valid JSON"))
		return
	}

	resp, err := h.settingsSvc.Update(r.Context(), req)
	if err != nil {
		h.responseHandler.HandleError(w, r, err)
		return
	}
	h.responseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}
