package models

import "time"

// Record is one raw item fetched from the deals board. Attribute text and
// raw values arrive as loosely-shaped strings; the columns package turns
// them into typed fields. Records are never persisted.
type Record struct {
	ID          string
	DisplayName string
	Attributes  map[string]AttributeValue
}

// AttributeValue carries both renderings monday emits for a column:
// the display text and the JSON-encoded raw value. Either may be empty.
type AttributeValue struct {
	Text     string
	RawValue string
}

// DirectoryUser is one entry from the workspace user directory, keyed by
// string id. Upstream emits ids as numbers or strings inconsistently, so
// ids are normalized to strings everywhere.
type DirectoryUser struct {
	ID       string
	Name     string
	PhotoURL string
}

// ParsedDeal is a Record after attribute parsing. A deal without a signed
// date is dropped before it reaches any aggregate.
type ParsedDeal struct {
	RecordID       string
	Company        string
	Owner          string
	OwnerPhotoURL  string
	Value          float64
	SignedDate     *time.Time
	Category       string
	LinkedScopeIDs []string
	HasLinkedScope bool
}

// OwnerAggregate accumulates one rep's monthly totals during the
// aggregation pass. Discarded at the end of each cycle.
type OwnerAggregate struct {
	Owner          string
	PhotoURL       string
	CurrentMonth   float64
	CurrentMonthCW float64
	CurrentMonthAE float64
	LastMonth      float64
	Deals          []ParsedDeal
}
