// Package columns parses the loosely-shaped column values the CRM board
// emits. Every parser is total: bad input degrades to a zero value or an
// explicit state, never an error that could abort a record.
package columns

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// State tags the outcome of parsing an embedded JSON value. Call sites
// collapse StateMalformed to the same handling as StateAbsent; the tag
// exists so tests can tell the two apart.
type State int

const (
	StateOK State = iota
	StateAbsent
	StateMalformed
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Money parses a deal value from the column's display text. Missing,
// non-numeric or negative input collapses to 0.
func Money(text string) float64 {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// SignedDate parses the signed-date column text. Invalid or empty input
// returns nil, which excludes the record from every aggregate.
func SignedDate(text string) *time.Time {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// PersonID extracts the first individual (non-team) entry from a people
// column's raw value, normalized to a string id.
func PersonID(rawValue string) (string, State) {
	if strings.TrimSpace(rawValue) == "" {
		return "", StateAbsent
	}
	if !gjson.Valid(rawValue) {
		return "", StateMalformed
	}
	entry := gjson.Get(rawValue, "personsAndTeams.0")
	if !entry.Exists() {
		return "", StateAbsent
	}
	if kind := entry.Get("kind").String(); kind != "" && kind != "person" {
		return "", StateAbsent
	}
	id := entry.Get("id").String()
	if id == "" {
		return "", StateAbsent
	}
	return id, StateOK
}

// LinkedIDs extracts the linked item ids from a connect-boards column's
// raw value, normalized to string ids.
func LinkedIDs(rawValue string) ([]string, State) {
	if strings.TrimSpace(rawValue) == "" {
		return nil, StateAbsent
	}
	if !gjson.Valid(rawValue) {
		return nil, StateMalformed
	}
	linked := gjson.Get(rawValue, "linkedPulseIds")
	if !linked.Exists() {
		return nil, StateAbsent
	}
	var ids []string
	linked.ForEach(func(_, item gjson.Result) bool {
		if id := item.Get("linkedPulseId").String(); id != "" {
			ids = append(ids, id)
		}
		return true
	})
	if len(ids) == 0 {
		return nil, StateAbsent
	}
	return ids, StateOK
}

// HasLinkedScope reports whether a deal references a scope item. Upstream
// data inconsistently populates the text or the raw value, so either a
// non-blank text OR a non-empty id list qualifies.
func HasLinkedScope(text string, ids []string) bool {
	return len(ids) > 0 || strings.TrimSpace(text) != ""
}

// Category passes the source label through; blank means the default
// bucket.
func Category(text string) string {
	return strings.TrimSpace(text)
}

// CompanyName is the item name before the first newline; the board
// appends type and numbering lines after it.
func CompanyName(displayName string) string {
	name, _, _ := strings.Cut(displayName, "\n")
	return strings.TrimSpace(name)
}
