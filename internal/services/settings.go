package services

import (
	"context"
	"errors"
	"sync"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/dto"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/errs"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/models"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/logger"
)

// settingsStore is the durable backend for dashboard settings. Get
// returns a NotFoundError when nothing has ever been persisted.
type settingsStore interface {
	Get(ctx context.Context) (map[string]any, error)
	Set(ctx context.Context, values map[string]any) error
}

// Bookkeeping fields some backends add to the stored document; never
// persisted back and never merged into settings.
var internalSettingsKeys = map[string]bool{
	"updatedAt": true,
	"source":    true,
}

// DefaultSettings are the hardcoded values every read merges under.
func DefaultSettings() models.Settings {
	return models.Settings{
		TopDealsMinThreshold: 5000,
		CWGoal:               250000,
		AEGoal:               150000,
		PrimaryColor:         "#00c875",
		AccentColor:          "#0086c0",
		BackgroundColor:      "#1b1b2f",
		ExcludedReps:         []string{},
	}
}

type settingsService struct {
	store settingsStore // nil when no durable backend is configured

	mu           sync.Mutex
	cached       *models.Settings
	cachedSource string
}

// NewSettingsService builds the settings service. A nil store degrades
// to defaults-plus-in-memory behavior.
func NewSettingsService(store settingsStore) *settingsService {
	return &settingsService{store: store}
}

// Get never fails: backend errors degrade to the last known-good value
// or the defaults, with the source marker saying which happened.
func (s *settingsService) Get(ctx context.Context) dto.SettingsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, source := s.load(ctx)
	return dto.SettingsResponse{Settings: settings, Source: source}
}

// Update shallow-merges the partial request over the current effective
// settings and persists the result. A failed write still lands in the
// in-memory cache so the dashboard keeps the new values this instance's
// lifetime.
func (s *settingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest) (dto.SettingsResponse, error) {
	if err := validateSettingsRequest(req); err != nil {
		return dto.SettingsResponse{}, err
	}

	log := logger.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, _ := s.load(ctx)
	merged := applyRequest(current, req)

	source := dto.SettingsSourcePersisted
	if s.store == nil {
		source = dto.SettingsSourceFallback
	} else if err := s.store.Set(ctx, settingsToMap(merged)); err != nil {
		log.Warn("settings write failed, keeping in-memory only", "error", err)
		source = dto.SettingsSourceFallback
	}

	s.cached = &merged
	s.cachedSource = source
	return dto.SettingsResponse{Settings: merged, Source: source}, nil
}

// load must be called with the lock held.
func (s *settingsService) load(ctx context.Context) (models.Settings, string) {
	log := logger.FromContext(ctx)

	if s.store == nil {
		if s.cached != nil {
			return *s.cached, s.cachedSource
		}
		return DefaultSettings(), dto.SettingsSourceDefault
	}

	stored, err := s.store.Get(ctx)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			// An empty backend after a failed write must not revert the
			// in-memory copy the last Update answered with.
			if s.cached != nil {
				return *s.cached, s.cachedSource
			}
			return DefaultSettings(), dto.SettingsSourceDefault
		}
		log.Warn("settings read failed, serving fallback", "error", err)
		if s.cached != nil {
			return *s.cached, dto.SettingsSourceFallback
		}
		return DefaultSettings(), dto.SettingsSourceFallback
	}

	merged := applyStored(DefaultSettings(), stored)
	s.cached = &merged
	s.cachedSource = dto.SettingsSourcePersisted
	return merged, dto.SettingsSourcePersisted
}

func validateSettingsRequest(req dto.UpdateSettingsRequest) error {
	if req.TopDealsMinThreshold != nil && *req.TopDealsMinThreshold < 0 {
		return errs.NewValidationError("topDealsMinThreshold must be >= 0")
	}
	if req.CWGoal != nil && *req.CWGoal <= 0 {
		return errs.NewValidationError("cwGoal must be positive")
	}
	if req.AEGoal != nil && *req.AEGoal <= 0 {
		return errs.NewValidationError("aeGoal must be positive")
	}
	return nil
}

// applyStored shallow-merges a stored document over the defaults.
// Unknown keys are ignored on read and stripped on write.
func applyStored(base models.Settings, stored map[string]any) models.Settings {
	out := base
	if v, ok := toFloat(stored["topDealsMinThreshold"]); ok && v >= 0 {
		out.TopDealsMinThreshold = v
	}
	if v, ok := toFloat(stored["cwGoal"]); ok && v > 0 {
		out.CWGoal = v
	}
	if v, ok := toFloat(stored["aeGoal"]); ok && v > 0 {
		out.AEGoal = v
	}
	if v, ok := stored["primaryColor"].(string); ok && v != "" {
		out.PrimaryColor = v
	}
	if v, ok := stored["accentColor"].(string); ok && v != "" {
		out.AccentColor = v
	}
	if v, ok := stored["backgroundColor"].(string); ok && v != "" {
		out.BackgroundColor = v
	}
	if reps, ok := toStringSlice(stored["excludedReps"]); ok {
		out.ExcludedReps = reps
	}
	return out
}

func applyRequest(base models.Settings, req dto.UpdateSettingsRequest) models.Settings {
	out := base
	if req.TopDealsMinThreshold != nil {
		out.TopDealsMinThreshold = *req.TopDealsMinThreshold
	}
	if req.CWGoal != nil {
		out.CWGoal = *req.CWGoal
	}
	if req.AEGoal != nil {
		out.AEGoal = *req.AEGoal
	}
	if req.PrimaryColor != nil {
		out.PrimaryColor = *req.PrimaryColor
	}
	if req.AccentColor != nil {
		out.AccentColor = *req.AccentColor
	}
	if req.BackgroundColor != nil {
		out.BackgroundColor = *req.BackgroundColor
	}
	if req.ExcludedReps != nil {
		out.ExcludedReps = *req.ExcludedReps
	}
	return out
}

func settingsToMap(s models.Settings) map[string]any {
	values := map[string]any{
		"topDealsMinThreshold": s.TopDealsMinThreshold,
		"cwGoal":               s.CWGoal,
		"aeGoal":               s.AEGoal,
		"primaryColor":         s.PrimaryColor,
		"accentColor":          s.AccentColor,
		"backgroundColor":      s.BackgroundColor,
		"excludedReps":         s.ExcludedReps,
	}
	for key := range values {
		if internalSettingsKeys[key] {
			delete(values, key)
		}
	}
	return values
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toStringSlice(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
