package models

// Settings is the dashboard configuration persisted by the settings
// store. Stored values are shallow-merged over hardcoded defaults.
type Settings struct {
	TopDealsMinThreshold float64  `firestore:"topDealsMinThreshold" json:"topDealsMinThreshold"`
	CWGoal               float64  `firestore:"cwGoal" json:"cwGoal"`
	AEGoal               float64  `firestore:"aeGoal" json:"aeGoal"`
	PrimaryColor         string   `firestore:"primaryColor" json:"primaryColor"`
	AccentColor          string   `firestore:"accentColor" json:"accentColor"`
	BackgroundColor      string   `firestore:"backgroundColor" json:"backgroundColor"`
	ExcludedReps         []string `firestore:"excludedReps" json:"excludedReps"`
}
