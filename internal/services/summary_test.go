package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/config"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/dto"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/errs"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/models"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/helpers"
)

// --- Stubs and fixtures ---

const (
	colValue  = "deal_value"
	colDate   = "date_signed"
	colOwner  = "deal_owner"
	colLinked = "connect_scopes"
	colSource = "deal_source"
)

var testCols = config.ColumnIDs{
	DealValue:    colValue,
	SignedDate:   colDate,
	Owner:        colOwner,
	LinkedScopes: colLinked,
	Source:       colSource,
	ScopeOwner:   "scope_owner",
}

type fakeSource struct {
	records      []models.Record
	directory    map[string]models.DirectoryUser
	scopeOwners  map[string]models.DirectoryUser
	err          error
	fetchCalls   int
	lastFloor    time.Time
	lastScopeIDs []string
}

func (f *fakeSource) FetchDeals(_ context.Context, dateFloor time.Time) ([]models.Record, error) {
	f.fetchCalls++
	f.lastFloor = dateFloor
	return f.records, f.err
}

func (f *fakeSource) FetchDirectory(_ context.Context) map[string]models.DirectoryUser {
	return f.directory
}

func (f *fakeSource) FetchScopeOwners(_ context.Context, ids []string) map[string]models.DirectoryUser {
	f.lastScopeIDs = ids
	return f.scopeOwners
}

type fakeSettingsProvider struct {
	settings models.Settings
}

func (f *fakeSettingsProvider) Get(_ context.Context) dto.SettingsResponse {
	return dto.SettingsResponse{Settings: f.settings, Source: dto.SettingsSourceDefault}
}

// testNow is a Wednesday; the current week runs Sunday the 12th through
// Saturday the 18th, the prior week the 5th through the 11th.
var testNow = time.Date(2024, time.May, 15, 12, 0, 0, 0, time.Local)

func newTestService(src *fakeSource, settings models.Settings) *dashboardService {
	cache := NewSummaryCache(3*time.Minute, nil)
	cache.now = func() time.Time { return testNow }
	svc := NewDashboardService(src, &fakeSettingsProvider{settings: settings}, nil, cache, testCols, nil)
	svc.clockNow = func() time.Time { return testNow }
	return svc
}

type recordOpt func(*models.Record)

func withAttr(id, text, raw string) recordOpt {
	return func(r *models.Record) {
		r.Attributes[id] = models.AttributeValue{Text: text, RawValue: raw}
	}
}

func wonDeal(id, company, owner, value, date string, opts ...recordOpt) models.Record {
	r := models.Record{
		ID:          id,
		DisplayName: company,
		Attributes: map[string]models.AttributeValue{
			colValue: {Text: value},
			colDate:  {Text: date},
			colOwner: {Text: owner},
		},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// withScope marks the deal as having a linked scope via display text.
func withScope() recordOpt {
	return withAttr(colLinked, "Scope 123", "")
}

// --- Tests ---

func TestGetSummary_DropsRecordsWithoutSignedDate(t *testing.T) {
	src := &fakeSource{records: []models.Record{
		wonDeal("1", "NoDate Inc", "Alice", "10000", ""),
		wonDeal("2", "BadDate Inc", "Alice", "10000", "not-a-date"),
		wonDeal("3", "Good Inc", "Alice", "10000", "2024-05-14"),
	}}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Leaderboard) != 1 {
		t.Fatalf("expected 1 leaderboard entry, got %d", len(summary.Leaderboard))
	}
	if got := summary.Leaderboard[0]; got.CurrentMonth != 10000 || got.DealCount != 1 {
		t.Errorf("dateless records leaked into aggregation: %+v", got)
	}
	if summary.Team.CurrentMonth != 10000 {
		t.Errorf("expected team total 10000, got %v", summary.Team.CurrentMonth)
	}
}

func TestGetSummary_MonthBucketsAreExclusive(t *testing.T) {
	src := &fakeSource{records: []models.Record{
		wonDeal("1", "Now Co", "Alice", "1000", "2024-05-14"),
		wonDeal("2", "Prior Co", "Alice", "2000", "2024-04-20"),
		wonDeal("3", "Old Co", "Alice", "4000", "2024-03-05"),
	}}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantFloor := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local)
	if !src.lastFloor.Equal(wantFloor) {
		t.Errorf("expected date floor %v, got %v", wantFloor, src.lastFloor)
	}

	entry := summary.Leaderboard[0]
	if entry.CurrentMonth != 1000 {
		t.Errorf("current month: want 1000, got %v", entry.CurrentMonth)
	}
	if entry.LastMonth != 2000 {
		t.Errorf("last month: want 2000, got %v", entry.LastMonth)
	}
	// The March deal is older than both buckets and contributes nothing.
	if summary.Team.CurrentMonth+summary.Team.LastMonth != 3000 {
		t.Errorf("stale deal leaked into totals: %+v", summary.Team)
	}
}

func TestGetSummary_CategorySplit(t *testing.T) {
	src := &fakeSource{records: []models.Record{
		wonDeal("1", "A", "Alice", "1000", "2024-05-14", withAttr(colSource, "AE Sourced", "")),
		wonDeal("2", "B", "Alice", "2000", "2024-05-14", withAttr(colSource, "AE sourced", "")),
		wonDeal("3", "C", "Alice", "4000", "2024-05-14", withAttr(colSource, "", "")),
	}}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := summary.Leaderboard[0]
	if entry.CurrentMonthAE != 1000 {
		t.Errorf("only the exact label is AE: want 1000, got %v", entry.CurrentMonthAE)
	}
	if entry.CurrentMonthCW != 6000 {
		t.Errorf("everything else is CW: want 6000, got %v", entry.CurrentMonthCW)
	}
	if entry.CurrentMonthCW+entry.CurrentMonthAE != entry.CurrentMonth {
		t.Errorf("CW+AE must equal the month total: %+v", entry)
	}
}

func TestGetSummary_LeaderboardRankingAndColors(t *testing.T) {
	reps := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	var records []models.Record
	for i, rep := range reps {
		// Rep A closes the smallest deal so the expected order reverses.
		value := float64((i + 1) * 1000)
		records = append(records, wonDeal(rep, rep+" Co", rep, fDollars(value), "2024-05-14"))
	}
	src := &fakeSource{records: records}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Leaderboard) != leaderboardSize {
		t.Fatalf("expected %d entries, got %d", leaderboardSize, len(summary.Leaderboard))
	}
	for i := 1; i < len(summary.Leaderboard); i++ {
		if summary.Leaderboard[i].CurrentMonth > summary.Leaderboard[i-1].CurrentMonth {
			t.Fatalf("leaderboard not sorted descending at %d", i)
		}
	}
	if summary.Leaderboard[0].Rep != "L" {
		t.Errorf("expected L first, got %s", summary.Leaderboard[0].Rep)
	}
	for i, entry := range summary.Leaderboard {
		if entry.Color != rankColors[i] {
			t.Errorf("rank %d: expected color %s, got %s", i, rankColors[i], entry.Color)
		}
	}
	// A and B fall off the board, but every deal stays in the team total.
	if summary.Team.CurrentMonth != 78000 {
		t.Errorf("expected team total 78000, got %v", summary.Team.CurrentMonth)
	}
}

func TestGetSummary_ExcludedRepsAndZeroActivity(t *testing.T) {
	settings := DefaultSettings()
	settings.ExcludedReps = []string{"Manager"}
	src := &fakeSource{records: []models.Record{
		wonDeal("1", "A Co", "Alice", "5000", "2024-05-14"),
		wonDeal("2", "M Co", "Manager", "9000", "2024-05-14"),
		wonDeal("3", "Z Co", "Zed", "free", "2024-05-14"), // unparseable value -> 0
	}}
	svc := newTestService(src, settings)

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Leaderboard) != 1 || summary.Leaderboard[0].Rep != "Alice" {
		t.Fatalf("expected only Alice on the board, got %+v", summary.Leaderboard)
	}
	// Excluded reps still count toward the team.
	if summary.Team.CurrentMonth != 14000 {
		t.Errorf("expected team total 14000, got %v", summary.Team.CurrentMonth)
	}
}

func TestGetSummary_HighlightThresholdGate(t *testing.T) {
	src := &fakeSource{records: []models.Record{
		wonDeal("1", "Under", "Alice", "4999", "2024-05-14", withScope()),
	}}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TopDeals.ThisWeek != nil {
		t.Error("4999 under a 5000 threshold must not be highlighted")
	}
	if len(summary.News) != 0 {
		t.Errorf("sub-threshold deal must not reach the news feed: %+v", summary.News)
	}
	// It still counts everywhere else.
	if summary.Team.CurrentMonth != 4999 {
		t.Errorf("expected team total 4999, got %v", summary.Team.CurrentMonth)
	}
}

func TestGetSummary_HighlightWindowsAndTies(t *testing.T) {
	src := &fakeSource{records: []models.Record{
		wonDeal("1", "This Small", "Alice", "8000", "2024-05-13", withScope()),
		wonDeal("2", "This Big A", "Bob", "20000", "2024-05-14", withScope()),
		wonDeal("3", "This Big B", "Carol", "20000", "2024-05-14", withScope()),
		wonDeal("4", "Last Best", "Dave", "15000", "2024-05-08", withScope()),
		wonDeal("5", "No Scope", "Eve", "90000", "2024-05-14"),
	}}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TopDeals.ThisWeek == nil || summary.TopDeals.ThisWeek.Company != "This Big A" {
		t.Errorf("this week: want first-seen max This Big A, got %+v", summary.TopDeals.ThisWeek)
	}
	if summary.TopDeals.LastWeek == nil || summary.TopDeals.LastWeek.Company != "Last Best" {
		t.Errorf("last week: want Last Best, got %+v", summary.TopDeals.LastWeek)
	}
}

func TestGetSummary_HighlightScopeOwnerResolution(t *testing.T) {
	linkedRaw := `{"linkedPulseIds":[{"linkedPulseId":555}]}`
	src := &fakeSource{
		records: []models.Record{
			wonDeal("1", "Scoped Co", "Alice", "12000", "2024-05-14",
				withAttr(colLinked, "Scoped Co Scope", linkedRaw)),
		},
		directory: map[string]models.DirectoryUser{
			"77": {ID: "77", Name: "Sam Scoper", PhotoURL: "https://img/77.png"},
		},
		scopeOwners: map[string]models.DirectoryUser{
			"555": {ID: "77", Name: "sam (raw)"},
		},
	}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(src.lastScopeIDs, []string{"555"}) {
		t.Errorf("expected scope owner lookup for [555], got %v", src.lastScopeIDs)
	}
	hl := summary.TopDeals.ThisWeek
	if hl == nil {
		t.Fatal("expected a this-week highlight")
	}
	if hl.ScopeOwner != "Sam Scoper" || hl.ScopeOwnerPhotoURL != "https://img/77.png" {
		t.Errorf("directory should overlay the raw scope owner: %+v", hl)
	}
}

func TestGetSummary_CompanyNameStripsAnnotations(t *testing.T) {
	src := &fakeSource{records: []models.Record{
		wonDeal("1", "Acme Corp\n[Type]\n123", "Alice", "7500", "2024-05-14", withScope()),
	}}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hl := summary.TopDeals.ThisWeek; hl == nil || hl.Company != "Acme Corp" {
		t.Errorf("expected company Acme Corp, got %+v", hl)
	}
}

func TestGetSummary_MissingDirectoryEntry(t *testing.T) {
	ownerRaw := `{"personsAndTeams":[{"id":42,"kind":"person"}]}`
	src := &fakeSource{
		records: []models.Record{
			wonDeal("1", "A Co", "Alice", "6000", "2024-05-14",
				withAttr(colOwner, "Alice", ownerRaw)),
		},
		directory: map[string]models.DirectoryUser{}, // user 42 unknown
	}
	svc := newTestService(src, DefaultSettings())

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Leaderboard) != 1 {
		t.Fatalf("expected Alice on the board, got %+v", summary.Leaderboard)
	}
	if summary.Leaderboard[0].PhotoURL != "" {
		t.Errorf("unknown directory user must yield an empty photo, got %q", summary.Leaderboard[0].PhotoURL)
	}
}

func TestGetSummary_MilestoneDisplacesOldestNews(t *testing.T) {
	settings := DefaultSettings()
	settings.CWGoal = 1000
	settings.AEGoal = 500

	var records []models.Record
	days := []string{"2024-05-14", "2024-05-13", "2024-05-13", "2024-05-12", "2024-05-10", "2024-05-09", "2024-05-08"}
	for i, day := range days {
		records = append(records, wonDeal(string(rune('a'+i)), "Co "+day, "Alice", "10000", day, withScope()))
	}
	src := &fakeSource{records: records}
	svc := newTestService(src, settings)

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.News) != newsFeedMax {
		t.Fatalf("expected %d news entries, got %d", newsFeedMax, len(summary.News))
	}
	if summary.News[0].Category != dto.NewsCategoryMilestone {
		t.Fatalf("expected milestone first, got %+v", summary.News[0])
	}
	for i, entry := range summary.News {
		if entry.ID != i+1 {
			t.Errorf("ids must be sequential after truncation: entry %d has id %d", i, entry.ID)
		}
	}
	// Deal wins stay newest-first after the milestone.
	if summary.News[1].Category != dto.NewsCategoryDealWin {
		t.Errorf("expected deal win second, got %+v", summary.News[1])
	}
}

func TestGetSummary_NoMilestoneAtGoal(t *testing.T) {
	settings := DefaultSettings()
	settings.CWGoal = 6000
	settings.AEGoal = 4000 // goal exactly equals the single deal

	src := &fakeSource{records: []models.Record{
		wonDeal("1", "A Co", "Alice", "10000", "2024-05-14", withScope()),
	}}
	svc := newTestService(src, settings)

	summary, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Team.GoalProgressPct != 100 {
		t.Errorf("expected 100%% progress, got %v", summary.Team.GoalProgressPct)
	}
	for _, entry := range summary.News {
		if entry.Category == dto.NewsCategoryMilestone {
			t.Error("milestone requires strictly exceeding the goal")
		}
	}
}

func TestGetSummary_Idempotent(t *testing.T) {
	records := []models.Record{
		wonDeal("1", "A Co", "Alice", "12000", "2024-05-14", withScope()),
		wonDeal("2", "B Co", "Bob", "8000", "2024-05-08", withScope()),
		wonDeal("3", "C Co", "Alice", "3000", "2024-04-22"),
	}
	src1 := &fakeSource{records: records}
	src2 := &fakeSource{records: records}

	s1, _, err1 := newTestService(src1, DefaultSettings()).GetSummary(helpers.TestCtx(), nil)
	s2, _, err2 := newTestService(src2, DefaultSettings()).GetSummary(helpers.TestCtx(), nil)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(s1, s2) {
		t.Error("identical inputs must produce identical payloads")
	}
}

func TestGetSummary_CachesDefaultThresholdOnly(t *testing.T) {
	src := &fakeSource{records: []models.Record{
		wonDeal("1", "A Co", "Alice", "12000", "2024-05-14", withScope()),
	}}
	svc := newTestService(src, DefaultSettings())
	ctx := helpers.TestCtx()

	if _, hit, err := svc.GetSummary(ctx, nil); err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	if _, hit, err := svc.GetSummary(ctx, nil); err != nil || !hit {
		t.Fatalf("second call should hit the cache: hit=%v err=%v", hit, err)
	}
	if src.fetchCalls != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", src.fetchCalls)
	}

	// An override equal to the default still counts as default.
	if _, hit, _ := svc.GetSummary(ctx, helpers.Ptr(5000.0)); !hit {
		t.Error("override equal to the default threshold should hit the cache")
	}

	// A real override always recomputes and never populates the cache.
	if _, hit, _ := svc.GetSummary(ctx, helpers.Ptr(100.0)); hit {
		t.Error("overridden threshold must bypass the cache")
	}
	if src.fetchCalls != 2 {
		t.Fatalf("override should refetch: got %d fetches", src.fetchCalls)
	}
	if _, hit, _ := svc.GetSummary(ctx, nil); !hit {
		t.Error("override computation must not evict the default entry")
	}
}

func TestGetSummary_UpstreamError(t *testing.T) {
	src := &fakeSource{err: errs.NewUpstreamError("monday", "deal fetch failed after fallback scan", false, errors.New("both query paths failed"))}
	svc := newTestService(src, DefaultSettings())

	_, _, err := svc.GetSummary(helpers.TestCtx(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var uerr *errs.UpstreamError
	if !errors.As(err, &uerr) {
		t.Errorf("expected UpstreamError, got %T", err)
	}
}

func fDollars(v float64) string {
	return fmt.Sprintf("$%.0f", v)
}
