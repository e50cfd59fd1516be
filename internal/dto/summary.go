package dto

import "time"

// News categories
const (
	NewsCategoryDealWin   = "deal_win"
	NewsCategoryMilestone = "milestone"
)

// SummaryResponse is the full dashboard payload.
type SummaryResponse struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	TopDeals    TopDeals           `json:"topDeals"`
	News        []NewsEntry        `json:"news"`
	Team        TeamTotals         `json:"team"`
	Theme       Theme              `json:"theme"`
}

// LeaderboardEntry is one rep's row, ranked by current-month total.
type LeaderboardEntry struct {
	Rep            string  `json:"rep"`
	PhotoURL       string  `json:"photoUrl,omitempty"`
	Color          string  `json:"color"`
	CurrentMonth   float64 `json:"currentMonth"`
	CurrentMonthCW float64 `json:"currentMonthCW"`
	CurrentMonthAE float64 `json:"currentMonthAE"`
	LastMonth      float64 `json:"lastMonth"`
	DealCount      int     `json:"dealCount"`
}

// TopDeals carries at most one highlight per week window.
type TopDeals struct {
	ThisWeek *HighlightDeal `json:"thisWeek"`
	LastWeek *HighlightDeal `json:"lastWeek"`
}

// HighlightDeal is the top qualifying deal of a week window, enriched
// with owner and (when a linked scope resolves) secondary assignee info.
type HighlightDeal struct {
	Company            string  `json:"company"`
	Value              float64 `json:"value"`
	SignedDate         string  `json:"signedDate"`
	Rep                string  `json:"rep"`
	RepPhotoURL        string  `json:"repPhotoUrl,omitempty"`
	RepColor           string  `json:"repColor"`
	ScopeOwner         string  `json:"scopeOwner,omitempty"`
	ScopeOwnerPhotoURL string  `json:"scopeOwnerPhotoUrl,omitempty"`
}

// NewsEntry is one feed item, deterministic copy by default and
// optionally rewritten by the narrative enrichment step.
type NewsEntry struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Emoji    string `json:"emoji"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
	TimeAgo  string `json:"timeAgo"`
	Rep      string `json:"rep,omitempty"`
}

// TeamTotals aggregates the whole team, excluded reps included.
type TeamTotals struct {
	CurrentMonth    float64 `json:"currentMonth"`
	CurrentMonthCW  float64 `json:"currentMonthCW"`
	CurrentMonthAE  float64 `json:"currentMonthAE"`
	LastMonth       float64 `json:"lastMonth"`
	CWGoal          float64 `json:"cwGoal"`
	AEGoal          float64 `json:"aeGoal"`
	GoalProgressPct float64 `json:"goalProgressPct"`
}

// Theme passes the configured colors through to the widget.
type Theme struct {
	Primary    string `json:"primary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
}
