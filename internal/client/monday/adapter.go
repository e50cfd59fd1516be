// Package mondayclient talks to the monday.com GraphQL API: the deals
// board, the user directory and the scopes board deals link to.
package mondayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/columns"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/config"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/errs"
	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/models"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/logger"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/metrics"
)

const (
	pageSize = 500
	// The unindexed fallback scan walks the whole board; the page cap
	// keeps the worst case inside the hosting platform's timeout.
	maxScanPages = 5

	directoryPageSize = 100
	maxDirectoryPages = 50

	itemFields = "id name column_values { id text value }"
)

type Options struct {
	URL           string
	Token         string
	APIVersion    string
	DealsBoardID  string
	ScopesBoardID string
	Columns       config.ColumnIDs
	Metrics       *metrics.Manager
}

type Adapter struct {
	client        *retryablehttp.Client
	url           string
	token         string
	apiVersion    string
	dealsBoardID  string
	scopesBoardID string
	cols          config.ColumnIDs
	metrics       *metrics.Manager
}

func NewAdapter(opts Options) *Adapter {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 20 * time.Second
	client.Logger = nil

	return &Adapter{
		client:        client,
		url:           opts.URL,
		token:         opts.Token,
		apiVersion:    opts.APIVersion,
		dealsBoardID:  opts.DealsBoardID,
		scopesBoardID: opts.ScopesBoardID,
		cols:          opts.Columns,
		metrics:       opts.Metrics,
	}
}

// FetchDeals returns every deal on the board signed on or after dateFloor.
// It first runs the server-filtered query; on any transport or API-level
// failure it falls back to the paginated full scan with a client-side
// date filter. Only both paths failing surfaces an error.
func (a *Adapter) FetchDeals(ctx context.Context, dateFloor time.Time) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	records, err := a.fetchDealsIndexed(ctx, dateFloor)
	if err == nil {
		return records, nil
	}
	log.Warn("indexed deal query failed, falling back to board scan", "error", err)
	a.metrics.RecordFallbackScan()

	records, scanErr := a.fetchDealsScan(ctx, dateFloor)
	if scanErr != nil {
		return nil, errs.NewUpstreamError("monday", "deal fetch failed after fallback scan", false, scanErr)
	}
	return records, nil
}

func (a *Adapter) fetchDealsIndexed(ctx context.Context, dateFloor time.Time) ([]models.Record, error) {
	query := fmt.Sprintf(`query ($board: [ID!]) {
		boards(ids: $board) {
			items_page(limit: %d, query_params: {rules: [{column_id: %q, compare_value: [%q, "TODAY"], operator: between}]}) {
				cursor
				items { %s }
			}
		}
	}`, pageSize, a.cols.SignedDate, dateFloor.Format("2006-01-02"), itemFields)

	data, err := a.query(ctx, "deals_indexed", query, map[string]any{"board": []string{a.dealsBoardID}})
	if err != nil {
		return nil, err
	}

	page := data.Get("boards.0.items_page")
	records := parseItems(page.Get("items"))
	cursor := page.Get("cursor").String()

	// The window is already bounded server-side; follow the cursor until
	// exhaustion but keep the same safety cap as the scan.
	for pages := 1; cursor != "" && pages < maxScanPages; pages++ {
		next, err := a.nextItemsPage(ctx, "deals_indexed", cursor)
		if err != nil {
			return nil, err
		}
		records = append(records, parseItems(next.Get("items"))...)
		cursor = next.Get("cursor").String()
	}
	return records, nil
}

func (a *Adapter) fetchDealsScan(ctx context.Context, dateFloor time.Time) ([]models.Record, error) {
	query := fmt.Sprintf(`query ($board: [ID!]) {
		boards(ids: $board) {
			items_page(limit: %d) {
				cursor
				items { %s }
			}
		}
	}`, pageSize, itemFields)

	data, err := a.query(ctx, "deals_scan", query, map[string]any{"board": []string{a.dealsBoardID}})
	if err != nil {
		return nil, err
	}

	page := data.Get("boards.0.items_page")
	records := a.filterByDate(parseItems(page.Get("items")), dateFloor)
	cursor := page.Get("cursor").String()

	for pages := 1; cursor != "" && pages < maxScanPages; pages++ {
		next, err := a.nextItemsPage(ctx, "deals_scan", cursor)
		if err != nil {
			return nil, err
		}
		records = append(records, a.filterByDate(parseItems(next.Get("items")), dateFloor)...)
		cursor = next.Get("cursor").String()
	}
	return records, nil
}

func (a *Adapter) nextItemsPage(ctx context.Context, source, cursor string) (gjson.Result, error) {
	query := fmt.Sprintf(`query ($cursor: String!) {
		next_items_page(limit: %d, cursor: $cursor) {
			cursor
			items { %s }
		}
	}`, pageSize, itemFields)

	data, err := a.query(ctx, source, query, map[string]any{"cursor": cursor})
	if err != nil {
		return gjson.Result{}, err
	}
	return data.Get("next_items_page"), nil
}

// filterByDate drops records signed before dateFloor or not at all. The
// scan path applies it per page since the server filter is unavailable.
func (a *Adapter) filterByDate(records []models.Record, dateFloor time.Time) []models.Record {
	kept := records[:0]
	for _, rec := range records {
		signed := columns.SignedDate(rec.Attributes[a.cols.SignedDate].Text)
		if signed == nil || signed.Before(dateFloor) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// FetchDirectory pages through the full workspace user list. Directory
// data only enriches photos, so a failed page returns whatever has been
// accumulated instead of failing the request.
func (a *Adapter) FetchDirectory(ctx context.Context) map[string]models.DirectoryUser {
	log := logger.FromContext(ctx)
	users := make(map[string]models.DirectoryUser)

	query := fmt.Sprintf(`query ($page: Int!) {
		users(limit: %d, page: $page) { id name photo_thumb_small }
	}`, directoryPageSize)

	for page := 1; page <= maxDirectoryPages; page++ {
		data, err := a.query(ctx, "directory", query, map[string]any{"page": page})
		if err != nil {
			log.Warn("directory page fetch failed, using partial directory", "page", page, "error", err)
			break
		}

		batch := data.Get("users")
		batch.ForEach(func(_, u gjson.Result) bool {
			id := u.Get("id").String()
			if id == "" {
				return true
			}
			users[id] = models.DirectoryUser{
				ID:       id,
				Name:     u.Get("name").String(),
				PhotoURL: u.Get("photo_thumb_small").String(),
			}
			return true
		})

		if int(batch.Get("#").Int()) < directoryPageSize {
			break
		}
	}
	return users
}

// FetchScopeOwners resolves linked scope items to the person assigned on
// the scopes board, keyed by scope item id. Best-effort: any failure
// returns an empty map and the highlight simply shows no second assignee.
func (a *Adapter) FetchScopeOwners(ctx context.Context, ids []string) map[string]models.DirectoryUser {
	owners := make(map[string]models.DirectoryUser)
	if len(ids) == 0 {
		return owners
	}
	log := logger.FromContext(ctx)

	query := fmt.Sprintf(`query ($ids: [ID!]) {
		items(ids: $ids) {
			id
			column_values(ids: [%q]) { id text value }
		}
	}`, a.cols.ScopeOwner)

	data, err := a.query(ctx, "scope_owners", query, map[string]any{"ids": ids})
	if err != nil {
		log.Warn("scope owner lookup failed, highlights will omit assignees", "error", err)
		return owners
	}

	data.Get("items").ForEach(func(_, item gjson.Result) bool {
		cv := item.Get("column_values.0")
		personID, state := columns.PersonID(cv.Get("value").String())
		if state != columns.StateOK {
			return true
		}
		owners[item.Get("id").String()] = models.DirectoryUser{
			ID:   personID,
			Name: cv.Get("text").String(),
		}
		return true
	})
	return owners
}

// query POSTs one GraphQL request and returns the data object. An errors
// array in the body counts as failure even on HTTP 200.
func (a *Adapter) query(ctx context.Context, source, query string, variables map[string]any) (gjson.Result, error) {
	start := time.Now()
	result, err := a.doQuery(ctx, query, variables)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.metrics.RecordUpstreamRequest(source, outcome, time.Since(start))

	return result, err
}

func (a *Adapter) doQuery(ctx context.Context, query string, variables map[string]any) (gjson.Result, error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return gjson.Result{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Authorization", a.token)
	req.Header.Set("API-Version", a.apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("monday api status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	parsed := gjson.ParseBytes(raw)
	if apiErrs := parsed.Get("errors"); apiErrs.Exists() && len(apiErrs.Array()) > 0 {
		return gjson.Result{}, fmt.Errorf("monday api error: %s", apiErrs.Get("0.message").String())
	}
	return parsed.Get("data"), nil
}

func parseItems(items gjson.Result) []models.Record {
	var records []models.Record
	items.ForEach(func(_, item gjson.Result) bool {
		rec := models.Record{
			ID:          item.Get("id").String(),
			DisplayName: item.Get("name").String(),
			Attributes:  make(map[string]models.AttributeValue),
		}
		item.Get("column_values").ForEach(func(_, cv gjson.Result) bool {
			rec.Attributes[cv.Get("id").String()] = models.AttributeValue{
				Text:     cv.Get("text").String(),
				RawValue: cv.Get("value").String(),
			}
			return true
		})
		records = append(records, rec)
		return true
	})
	return records
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
