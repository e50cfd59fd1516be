package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/dto"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/helpers"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/logger"
)

type vertexClient interface {
	GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error)
}

// newsFact carries the raw facts behind one deal-win entry, both for the
// deterministic copy and for the enrichment prompt.
type newsFact struct {
	Rep     string
	Company string
	Value   float64
	TimeAgo string
}

// buildNewsFeed derives the feed from the highlight-window candidates:
// sort by signed date descending, cap to 8, render copy, prepend the
// milestone entry when the team is past goal, then cap the final list
// to 6. The milestone can displace the oldest real entry.
func buildNewsFeed(candidates []candidate, team dto.TeamTotals, now time.Time) ([]dto.NewsEntry, []newsFact) {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].deal.SignedDate.After(*sorted[j].deal.SignedDate)
	})
	if len(sorted) > newsCandidateCap {
		sorted = sorted[:newsCandidateCap]
	}

	entries := make([]dto.NewsEntry, 0, len(sorted)+1)
	facts := make([]newsFact, 0, len(sorted))
	for _, cand := range sorted {
		deal := cand.deal
		timeAgo := humanize.RelTime(*deal.SignedDate, now, "ago", "from now")

		entry := dto.NewsEntry{
			Category: dto.NewsCategoryDealWin,
			TimeAgo:  timeAgo,
			Rep:      deal.Owner,
		}
		if deal.Value >= newsHypeThreshold {
			entry.Emoji = "🚀"
			entry.Headline = fmt.Sprintf("%s lands %s!", deal.Owner, deal.Company)
			entry.Body = fmt.Sprintf("A massive $%s signature just came through. Huge win for the board.", humanize.Commaf(deal.Value))
		} else {
			entry.Emoji = "💰"
			entry.Headline = fmt.Sprintf("%s closes %s", deal.Owner, deal.Company)
			entry.Body = fmt.Sprintf("$%s signed and counted toward this month's total.", humanize.Commaf(deal.Value))
		}
		entries = append(entries, entry)
		facts = append(facts, newsFact{
			Rep:     deal.Owner,
			Company: deal.Company,
			Value:   deal.Value,
			TimeAgo: timeAgo,
		})
	}

	goal := team.CWGoal + team.AEGoal
	if goal > 0 && team.CurrentMonth > goal {
		milestone := dto.NewsEntry{
			Category: dto.NewsCategoryMilestone,
			Emoji:    "🎉",
			Headline: "Monthly goal smashed!",
			Body: fmt.Sprintf("The team has blown past the $%s goal — %.0f%% and climbing.",
				humanize.Commaf(goal), team.GoalProgressPct),
			TimeAgo: "just now",
			Rep:     "Team",
		}
		entries = append([]dto.NewsEntry{milestone}, entries...)
	}

	if len(entries) > newsFeedMax {
		entries = entries[:newsFeedMax]
	}
	for i := range entries {
		entries[i].ID = i + 1
	}
	return entries, facts
}

// enrichNews asks the text model to rewrite the deal-win copy. Any
// failure leaves the deterministic entries untouched; the numeric payload
// never depends on enrichment.
func (s *dashboardService) enrichNews(ctx context.Context, summary *dto.SummaryResponse, facts []newsFact) {
	if s.vertex == nil || len(facts) == 0 {
		return
	}
	log := logger.FromContext(ctx)

	rewrites, err := s.generateRewrites(ctx, facts, summary.Team)
	if err != nil {
		log.Warn("news enrichment failed, using deterministic copy", "error", err)
		s.metrics.RecordEnrichmentFallback()
		return
	}

	i := 0
	for idx := range summary.News {
		if summary.News[idx].Category != dto.NewsCategoryDealWin {
			continue
		}
		if i >= len(rewrites) {
			break
		}
		rw := rewrites[i]
		i++
		if rw.Headline == "" || rw.Body == "" {
			continue
		}
		if rw.Emoji != "" {
			summary.News[idx].Emoji = rw.Emoji
		}
		summary.News[idx].Headline = rw.Headline
		summary.News[idx].Body = rw.Body
	}
}

type newsRewrite struct {
	Emoji    string `json:"emoji"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
}

const newsSystemPrompt = `You write short, punchy newsroom copy for a sales team's wall dashboard.
Tone: energetic but professional, one sentence headlines, one or two sentence bodies.
Respond with ONLY a JSON array, one object per input fact, each object shaped
{"emoji": "...", "headline": "...", "body": "..."}. No other text.`

func (s *dashboardService) generateRewrites(ctx context.Context, facts []newsFact, team dto.TeamTotals) ([]newsRewrite, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Team progress: %.0f%% of the monthly goal.\n", team.GoalProgressPct)
	b.WriteString("Deals, most recent first:\n")
	for i, fact := range facts {
		fmt.Fprintf(&b, "%d. %s closed %s for $%s (%s)\n", i+1, fact.Rep, fact.Company, humanize.Commaf(fact.Value), fact.TimeAgo)
	}

	resp, err := s.vertex.GenerateContent(ctx, dto.VertexGenerateRequest{
		System:          newsSystemPrompt,
		UserMessage:     b.String(),
		Temperature:     helpers.Ptr(float32(0.8)),
		MaxOutputTokens: helpers.Ptr(int32(1024)),
	})
	if err != nil {
		return nil, err
	}

	arr, ok := extractJSONArray(resp.Text)
	if !ok {
		return nil, fmt.Errorf("no JSON array in model output")
	}
	var rewrites []newsRewrite
	if err := json.Unmarshal([]byte(arr), &rewrites); err != nil {
		return nil, fmt.Errorf("unparsable model output: %w", err)
	}
	if len(rewrites) < len(facts) {
		return nil, fmt.Errorf("model returned %d rewrites for %d facts", len(rewrites), len(facts))
	}
	return rewrites, nil
}

// extractJSONArray pulls the first [...] span out of prose or markdown
// the model may wrap around its answer.
func extractJSONArray(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
