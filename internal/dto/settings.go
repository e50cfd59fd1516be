package dto

import "github.com/jackjack22202/carbonweb-sales-dashboard/internal/models"

// Settings provenance markers
const (
	SettingsSourceDefault   = "default"
	SettingsSourcePersisted = "persisted"
	SettingsSourceFallback  = "fallback"
)

// SettingsResponse wraps the effective settings with a provenance marker
// so the UI can tell defaults from persisted values from a degraded read.
type SettingsResponse struct {
	Settings models.Settings `json:"settings"`
	Source   string          `json:"source"`
}

// UpdateSettingsRequest is a partial settings object; nil fields keep
// their current value.
type UpdateSettingsRequest struct {
	TopDealsMinThreshold *float64  `json:"topDealsMinThreshold,omitempty"`
	CWGoal               *float64  `json:"cwGoal,omitempty"`
	AEGoal               *float64  `json:"aeGoal,omitempty"`
	PrimaryColor         *string   `json:"primaryColor,omitempty"`
	AccentColor          *string   `json:"accentColor,omitempty"`
	BackgroundColor      *string   `json:"backgroundColor,omitempty"`
	ExcludedReps         *[]string `json:"excludedReps,omitempty"`
}
