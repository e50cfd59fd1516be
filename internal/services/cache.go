package services

import (
	"sync"
	"time"

	"github.com/jackjack22202/carbonweb-sales-dashboard/internal/dto"
	"github.com/jackjack22202/carbonweb-sales-dashboard/pkg/metrics"
)

// SummaryCache is a single-slot memo of the last computed summary. A hit
// requires both that the entry is younger than the TTL and that the
// request used the default minimum-deal threshold; overridden thresholds
// change the highlight/news derivation, so they always recompute.
//
// Concurrent requests may race store-vs-store; last writer wins and the
// worst outcome is a duplicate upstream fetch.
type SummaryCache struct {
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Manager

	mu         sync.Mutex
	summary    *dto.SummaryResponse
	computedAt time.Time
}

func NewSummaryCache(ttl time.Duration, m *metrics.Manager) *SummaryCache {
	return &SummaryCache{
		ttl:     ttl,
		now:     time.Now,
		metrics: m,
	}
}

func (c *SummaryCache) Get(defaultThreshold bool) (*dto.SummaryResponse, bool) {
	// Overridden thresholds bypass the cache by design; not a miss.
	if !defaultThreshold {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.summary != nil && c.now().Sub(c.computedAt) < c.ttl {
		c.metrics.RecordCacheHit()
		return c.summary, true
	}
	c.metrics.RecordCacheMiss()
	return nil, false
}

func (c *SummaryCache) Store(summary *dto.SummaryResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = summary
	c.computedAt = c.now()
}
