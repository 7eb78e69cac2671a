package model

import "time"

// EntityKind names one of the four persisted entity kinds.
type EntityKind string

const (
	KindCategory    EntityKind = "category"
	KindSubcategory EntityKind = "subcategory"
	KindSupplier    EntityKind = "supplier"
	KindProduct     EntityKind = "product"
)

// EntityKinds lists the kinds in traversal order.
var EntityKinds = []EntityKind{KindCategory, KindSubcategory, KindSupplier, KindProduct}

// EntityStats counts the outcome of resolve/upsert calls for one kind.
type EntityStats struct {
	// Created is the number of rows inserted by this run.
	Created int `json:"created"`

	// Existing is the number of candidates that matched a stored row.
	Existing int `json:"existing"`

	// Failed is the number of candidates that could not be stored,
	// including products dropped for a missing supplier.
	Failed int `json:"failed"`
}

// Total returns the number of candidates seen.
func (s EntityStats) Total() int {
	return s.Created + s.Existing + s.Failed
}

// AbandonedBranch records a branch that ended early.
type AbandonedBranch struct {
	Stage  string `json:"stage"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// CrawlSummary is the outcome of one crawl run.
type CrawlSummary struct {
	// RunID identifies the run in the crawl history.
	RunID string `json:"run_id"`

	// StartURL is the root page the run started from.
	StartURL string `json:"start_url"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// PagesFetched counts successful fetches.
	PagesFetched int `json:"pages_fetched"`

	// FetchFailures counts targets whose fetch failed after all retries.
	FetchFailures int `json:"fetch_failures"`

	// Skipped counts targets dropped by page limits or URL patterns.
	Skipped int `json:"skipped"`

	// Warnings counts pages that yielded no items where items were expected.
	Warnings int `json:"warnings"`

	// Entities holds the per-kind counters.
	Entities map[EntityKind]EntityStats `json:"entities"`

	// Abandoned lists branches that ended on an error.
	Abandoned []AbandonedBranch `json:"abandoned,omitempty"`

	// Cancelled is true when the run stopped before the queue drained.
	Cancelled bool `json:"cancelled"`
}

// NewCrawlSummary returns an empty summary with all kinds present.
func NewCrawlSummary(runID, startURL string, startedAt time.Time) *CrawlSummary {
	s := &CrawlSummary{
		RunID:     runID,
		StartURL:  startURL,
		StartedAt: startedAt,
		Entities:  make(map[EntityKind]EntityStats, len(EntityKinds)),
	}
	for _, k := range EntityKinds {
		s.Entities[k] = EntityStats{}
	}
	return s
}

// Duration returns how long the run took.
func (s *CrawlSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Created returns the number of rows inserted across all kinds.
func (s *CrawlSummary) Created() int {
	n := 0
	for _, st := range s.Entities {
		n += st.Created
	}
	return n
}

// Changed reports whether the run inserted anything.
func (s *CrawlSummary) Changed() bool {
	return s.Created() > 0
}
