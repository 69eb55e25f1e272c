package analytics

import "time"

type EventType string

const (
	EventQuery      EventType = "query"
	EventCacheHit   EventType = "cache_hit"
	EventCacheMiss  EventType = "cache_miss"
	EventZeroResult EventType = "zero_result"
	EventRejected   EventType = "rejected"
)

// QueryEvent records one classic API query for downstream analysis.
type QueryEvent struct {
	Type      EventType `json:"type"`
	RawQuery  string    `json:"raw_query"`
	Phrase    string    `json:"phrase"`
	Fields    []string  `json:"fields"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}
