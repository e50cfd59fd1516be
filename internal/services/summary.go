package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/columns"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/config"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/dto"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/models"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/logger"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/metrics"
)

const (
	leaderboardSize = 10
	newsFeedMax     = 6
	newsCandidateCap = 8

	// The label that routes a deal into the AE bucket. Anything else,
	// including blank, counts as CW. Upstream data quality depends on
	// this exact default; do not add an unclassified bucket.
	aeSourcedLabel = "AE Sourced"

	// Deals at or above this value get the higher-energy news tone.
	newsHypeThreshold = 50000
)

// rankColors is the fixed leaderboard palette, assigned by rank after
// truncation to the top 10.
var rankColors = [12]string{
	"#00c875", "#0086c0", "#a25ddc", "#e2445c",
	"#fdab3d", "#037f4c", "#579bfc", "#ff642e",
	"#9cd326", "#cab641", "#784bd1", "#66ccff",
}

const unknownRepColor = "#797e93"

// dealSource is the upstream CRM surface the summary needs.
type dealSource interface {
	FetchDeals(ctx context.Context, dateFloor time.Time) ([]models.Record, error)
	FetchDirectory(ctx context.Context) map[string]models.DirectoryUser
	FetchScopeOwners(ctx context.Context, ids []string) map[string]models.DirectoryUser
}

type settingsProvider interface {
	Get(ctx context.Context) dto.SettingsResponse
}

type dashboardService struct {
	source   dealSource
	settings settingsProvider
	vertex   vertexClient // nil disables narrative enrichment
	cache    *SummaryCache
	cols     config.ColumnIDs
	metrics  *metrics.Manager
	clockNow func() time.Time
}

func NewDashboardService(source dealSource, settings settingsProvider, vertex vertexClient, cache *SummaryCache, cols config.ColumnIDs, m *metrics.Manager) *dashboardService {
	return &dashboardService{
		source:   source,
		settings: settings,
		vertex:   vertex,
		cache:    cache,
		cols:     cols,
		metrics:  m,
		clockNow: time.Now,
	}
}

// GetSummary computes or serves the dashboard payload. The returned bool
// reports whether the response came from the cache.
func (s *dashboardService) GetSummary(ctx context.Context, minThresholdOverride *float64) (*dto.SummaryResponse, bool, error) {
	log := logger.FromContext(ctx)

	settings := s.settings.Get(ctx).Settings
	threshold := settings.TopDealsMinThreshold
	defaultThreshold := minThresholdOverride == nil || *minThresholdOverride == threshold
	if minThresholdOverride != nil {
		threshold = *minThresholdOverride
	}

	if cached, ok := s.cache.Get(defaultThreshold); ok {
		return cached, true, nil
	}

	now := s.clockNow()
	// Two calendar months back, normalized to the 1st: bounds the
	// upstream response while fully covering both month buckets.
	dateFloor := time.Date(now.Year(), now.Month()-2, 1, 0, 0, 0, 0, now.Location())

	// Deals and directory are independent reads; fetch them in parallel.
	var (
		records   []models.Record
		fetchErr  error
		directory map[string]models.DirectoryUser
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		records, fetchErr = s.source.FetchDeals(ctx, dateFloor)
	}()
	go func() {
		defer wg.Done()
		directory = s.source.FetchDirectory(ctx)
	}()
	wg.Wait()
	if fetchErr != nil {
		return nil, false, fetchErr
	}

	deals := s.parseRecords(records, directory)
	scopeOwners := s.source.FetchScopeOwners(ctx, collectScopeIDs(deals, threshold, now))

	summary, facts := buildSummary(deals, directory, scopeOwners, settings, threshold, now)
	s.enrichNews(ctx, summary, facts)

	if defaultThreshold {
		s.cache.Store(summary)
	}

	log.Info("summary computed",
		"records", len(records),
		"deals", len(deals),
		"leaderboard", len(summary.Leaderboard),
		"news", len(summary.News))
	return summary, false, nil
}

// parseRecords turns raw records into ParsedDeals. A record with no
// parseable signed date contributes to nothing and is dropped here.
func (s *dashboardService) parseRecords(records []models.Record, directory map[string]models.DirectoryUser) []models.ParsedDeal {
	deals := make([]models.ParsedDeal, 0, len(records))
	for _, rec := range records {
		signed := columns.SignedDate(rec.Attributes[s.cols.SignedDate].Text)
		if signed == nil {
			continue
		}

		ownerCol := rec.Attributes[s.cols.Owner]
		linkedCol := rec.Attributes[s.cols.LinkedScopes]

		deal := models.ParsedDeal{
			RecordID:   rec.ID,
			Company:    columns.CompanyName(rec.DisplayName),
			Owner:      strings.TrimSpace(ownerCol.Text),
			Value:      columns.Money(rec.Attributes[s.cols.DealValue].Text),
			SignedDate: signed,
			Category:   columns.Category(rec.Attributes[s.cols.Source].Text),
		}

		// Malformed embedded JSON is treated the same as absent.
		if personID, state := columns.PersonID(ownerCol.RawValue); state == columns.StateOK {
			deal.OwnerPhotoURL = directory[personID].PhotoURL
		}
		if ids, state := columns.LinkedIDs(linkedCol.RawValue); state == columns.StateOK {
			deal.LinkedScopeIDs = ids
		}
		deal.HasLinkedScope = columns.HasLinkedScope(linkedCol.Text, deal.LinkedScopeIDs)

		deals = append(deals, deal)
	}
	return deals
}

// collectScopeIDs gathers the linked scope ids of every highlight-window
// candidate so the scope owners can be resolved in one upstream call.
func collectScopeIDs(deals []models.ParsedDeal, threshold float64, now time.Time) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, deal := range deals {
		if window := highlightWindow(deal, threshold, now); window == windowNone {
			continue
		}
		for _, id := range deal.LinkedScopeIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

type week int

const (
	windowNone week = iota
	windowThisWeek
	windowLastWeek
)

// highlightWindow classifies a deal against the Sunday-aligned week
// windows and the highlight eligibility gates.
func highlightWindow(deal models.ParsedDeal, threshold float64, now time.Time) week {
	if deal.SignedDate == nil || !deal.HasLinkedScope || deal.Value < threshold {
		return windowNone
	}
	weekStart := startOfWeek(now)
	switch {
	case inRange(*deal.SignedDate, weekStart, weekStart.AddDate(0, 0, 7)):
		return windowThisWeek
	case inRange(*deal.SignedDate, weekStart.AddDate(0, 0, -7), weekStart):
		return windowLastWeek
	}
	return windowNone
}

// startOfWeek is the most recent Sunday at local midnight.
func startOfWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// buildSummary is the aggregation engine proper: a pure function of its
// inputs, so identical inputs always produce an identical payload.
func buildSummary(
	deals []models.ParsedDeal,
	directory map[string]models.DirectoryUser,
	scopeOwners map[string]models.DirectoryUser,
	settings models.Settings,
	threshold float64,
	now time.Time,
) (*dto.SummaryResponse, []newsFact) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)
	nextMonthStart := monthStart.AddDate(0, 1, 0)

	owners := make(map[string]*models.OwnerAggregate)
	var ownerOrder []string
	var team dto.TeamTotals
	var candidates []candidate

	for _, deal := range deals {
		agg, ok := owners[deal.Owner]
		if !ok {
			agg = &models.OwnerAggregate{Owner: deal.Owner, PhotoURL: deal.OwnerPhotoURL}
			owners[deal.Owner] = agg
			ownerOrder = append(ownerOrder, deal.Owner)
		}
		if agg.PhotoURL == "" {
			agg.PhotoURL = deal.OwnerPhotoURL
		}

		// Current and prior month are mutually exclusive by construction.
		switch {
		case inRange(*deal.SignedDate, monthStart, nextMonthStart):
			agg.CurrentMonth += deal.Value
			team.CurrentMonth += deal.Value
			if deal.Category == aeSourcedLabel {
				agg.CurrentMonthAE += deal.Value
				team.CurrentMonthAE += deal.Value
			} else {
				agg.CurrentMonthCW += deal.Value
				team.CurrentMonthCW += deal.Value
			}
			agg.Deals = append(agg.Deals, deal)
		case inRange(*deal.SignedDate, prevMonthStart, monthStart):
			agg.LastMonth += deal.Value
			team.LastMonth += deal.Value
			agg.Deals = append(agg.Deals, deal)
		}

		// Week windows are tested independently of month bucketing.
		if window := highlightWindow(deal, threshold, now); window != windowNone {
			candidates = append(candidates, candidate{deal: deal, window: window})
		}
	}

	team.CWGoal = settings.CWGoal
	team.AEGoal = settings.AEGoal
	teamGoal := settings.CWGoal + settings.AEGoal
	if teamGoal > 0 {
		team.GoalProgressPct = math.Round(team.CurrentMonth/teamGoal*1000) / 10
	}

	leaderboard, repColors := buildLeaderboard(owners, ownerOrder, settings.ExcludedReps)
	topDeals := buildTopDeals(candidates, directory, scopeOwners, repColors)
	news, facts := buildNewsFeed(candidates, team, now)

	return &dto.SummaryResponse{
		GeneratedAt: now,
		Leaderboard: leaderboard,
		TopDeals:    topDeals,
		News:        news,
		Team:        team,
		Theme: dto.Theme{
			Primary:    settings.PrimaryColor,
			Accent:     settings.AccentColor,
			Background: settings.BackgroundColor,
		},
	}, facts
}

type candidate struct {
	deal   models.ParsedDeal
	window week
}

// buildLeaderboard ranks owners by current-month total. Owners with no
// current or prior activity never appear, excluded reps are suppressed
// here only (their deals stay in the team totals), and colors follow
// rank after truncation.
func buildLeaderboard(owners map[string]*models.OwnerAggregate, ownerOrder, excludedReps []string) ([]dto.LeaderboardEntry, map[string]string) {
	excluded := make(map[string]bool, len(excludedReps))
	for _, rep := range excludedReps {
		excluded[rep] = true
	}

	var ranked []*models.OwnerAggregate
	for _, name := range ownerOrder {
		agg := owners[name]
		if agg.Owner == "" || excluded[agg.Owner] {
			continue
		}
		if agg.CurrentMonth == 0 && agg.LastMonth == 0 {
			continue
		}
		ranked = append(ranked, agg)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CurrentMonth > ranked[j].CurrentMonth
	})
	if len(ranked) > leaderboardSize {
		ranked = ranked[:leaderboardSize]
	}

	entries := make([]dto.LeaderboardEntry, 0, len(ranked))
	colors := make(map[string]string, len(ranked))
	for i, agg := range ranked {
		color := rankColors[i%len(rankColors)]
		colors[agg.Owner] = color
		entries = append(entries, dto.LeaderboardEntry{
			Rep:            agg.Owner,
			PhotoURL:       agg.PhotoURL,
			Color:          color,
			CurrentMonth:   agg.CurrentMonth,
			CurrentMonthCW: agg.CurrentMonthCW,
			CurrentMonthAE: agg.CurrentMonthAE,
			LastMonth:      agg.LastMonth,
			DealCount:      len(agg.Deals),
		})
	}
	return entries, colors
}

func buildTopDeals(
	candidates []candidate,
	directory map[string]models.DirectoryUser,
	scopeOwners map[string]models.DirectoryUser,
	repColors map[string]string,
) dto.TopDeals {
	var bestThis, bestLast *models.ParsedDeal
	for i := range candidates {
		cand := &candidates[i]
		// Strict greater-than keeps the first-seen deal on ties.
		switch cand.window {
		case windowThisWeek:
			if bestThis == nil || cand.deal.Value > bestThis.Value {
				bestThis = &cand.deal
			}
		case windowLastWeek:
			if bestLast == nil || cand.deal.Value > bestLast.Value {
				bestLast = &cand.deal
			}
		}
	}

	return dto.TopDeals{
		ThisWeek: highlightFor(bestThis, directory, scopeOwners, repColors),
		LastWeek: highlightFor(bestLast, directory, scopeOwners, repColors),
	}
}

func highlightFor(
	deal *models.ParsedDeal,
	directory map[string]models.DirectoryUser,
	scopeOwners map[string]models.DirectoryUser,
	repColors map[string]string,
) *dto.HighlightDeal {
	if deal == nil {
		return nil
	}

	color, ok := repColors[deal.Owner]
	if !ok {
		color = unknownRepColor
	}

	h := &dto.HighlightDeal{
		Company:     deal.Company,
		Value:       deal.Value,
		SignedDate:  deal.SignedDate.Format("2006-01-02"),
		Rep:         deal.Owner,
		RepPhotoURL: deal.OwnerPhotoURL,
		RepColor:    color,
	}

	// First linked id that resolves wins.
	for _, id := range deal.LinkedScopeIDs {
		owner, ok := scopeOwners[id]
		if !ok {
			continue
		}
		h.ScopeOwner = owner.Name
		if user, ok := directory[owner.ID]; ok {
			if user.Name != "" {
				h.ScopeOwner = user.Name
			}
			h.ScopeOwnerPhotoURL = user.PhotoURL
		}
		break
	}
	return h
}
