package handlers

import (
	"context"
	"net/http"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/dto"
)

// --- Shared stubs ---

type stubResponseHandler struct {
	writeSuccessCalled bool
	writeSuccessStatus int
	writeSuccessData   any

	handleErrorCalled bool
	handleError       error

	writeErrorCalled bool
	writeErrorStatus int
	writeErrorCode   string
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, _ *http.Request, status int, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessData = data

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":true}`))
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, _ *http.Request, status int, code, _ string) {
	s.writeErrorCalled = true
	s.writeErrorStatus = status
	s.writeErrorCode = code
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, _ *http.Request, err error) {
	s.handleErrorCalled = true
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

type stubSummaryService struct {
	summary      *dto.SummaryResponse
	cacheHit     bool
	err          error
	lastOverride *float64
	calls        int
}

func (s *stubSummaryService) GetSummary(_ context.Context, override *float64) (*dto.SummaryResponse, bool, error) {
	s.calls++
	s.lastOverride = override
	return s.summary, s.cacheHit, s.err
}

type stubSettingsService struct {
	getResp    dto.SettingsResponse
	updateResp dto.SettingsResponse
	updateErr  error
	lastUpdate dto.UpdateSettingsRequest
}

func (s *stubSettingsService) Get(_ context.Context) dto.SettingsResponse {
	return s.getResp
}

func (s *stubSettingsService) Update(_ context.Context, req dto.UpdateSettingsRequest) (dto.SettingsResponse, error) {
	s.lastUpdate = req
	return s.updateResp, s.updateErr
}
