package config

// Config holds every tunable the service reads at startup. Request-time
// tunables (goals, thresholds, excluded reps) live in the settings store
// instead.
type Config struct {
	// HTTP listen address.
	Addr string `koanf:"addr"`

	// Log level: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// GCP project/region, used by Firestore, Secret Manager and Vertex.
	ProjectID string `koanf:"project_id"`
	Region    string `koanf:"region"`

	// Vertex model for news copy rewriting. Empty disables enrichment.
	VertexModel string `koanf:"vertex_model"`

	// monday.com API access.
	MondayToken       string `koanf:"monday_token"`
	MondayTokenSecret string `koanf:"monday_token_secret"` // Secret Manager resource name, overrides MondayToken
	MondayURL         string `koanf:"monday_url"`
	MondayAPIVersion  string `koanf:"monday_api_version"`

	// Board ids: the deals board that is aggregated and the scopes board
	// deals link to.
	DealsBoardID  string `koanf:"deals_board_id"`
	ScopesBoardID string `koanf:"scopes_board_id"`

	// Column ids on the deals/scopes boards.
	Columns ColumnIDs `koanf:"columns"`

	// Summary cache TTL.
	SummaryTTLSeconds int `koanf:"summary_ttl_seconds"`

	// Settings persistence backend: firestore, sqlite or none.
	SettingsBackend string `koanf:"settings_backend"`
	SQLitePath      string `koanf:"sqlite_path"`
}

// ColumnIDs names the board columns the parsers read.
type ColumnIDs struct {
	DealValue    string `koanf:"deal_value"`
	SignedDate   string `koanf:"signed_date"`
	Owner        string `koanf:"owner"`
	LinkedScopes string `koanf:"linked_scopes"`
	Source       string `koanf:"source"`
	ScopeOwner   string `koanf:"scope_owner"`
}

// New returns the hardcoded defaults. Load layers file and env on top.
func New() *Config {
	return &Config{
		Addr:              ":8080",
		LogLevel:          "info",
		MondayURL:         "https://api.monday.com/v2",
		MondayAPIVersion:  "2024-10",
		SummaryTTLSeconds: 180,
		SettingsBackend:   "none",
		SQLitePath:        "settings.db",
		Columns: ColumnIDs{
			DealValue:    "numbers",
			SignedDate:   "date",
			Owner:        "people",
			LinkedScopes: "connect_boards",
			Source:       "status",
			ScopeOwner:   "people",
		},
	}
}
