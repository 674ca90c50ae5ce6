// Package analytics streams search events to Kafka so query popularity and
// zero-result queries can be studied offline.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Catalog   string    `json:"catalog"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// EventTypeFor classifies a completed search.
func EventTypeFor(totalHits int) EventType {
	if totalHits == 0 {
		return EventZeroResult
	}
	return EventSearch
}
