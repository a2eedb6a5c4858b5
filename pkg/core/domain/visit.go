package domain

import "time"

// TimestampLayout is the textual form timestamps are persisted and exported in
const TimestampLayout = "2006-01-02T15:04:05Z"

// UnknownAddress is stored when no client address could be resolved
const UnknownAddress = "unknown"

// Visit represents one logged request
type Visit struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	UserAgent string    `json:"userAgent"`
	Referer   string    `json:"referer"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"` // set by the store, UTC, second precision
}

// VisitStats represents aggregated statistics over the visit log
type VisitStats struct {
	TotalVisits int64            `json:"total_visits"`
	Referrers   map[string]int64 `json:"referrers"`    // top referers, "Direct" for empty
	Paths       map[string]int64 `json:"paths"`        // top requested paths
	DailyVisits []DailyVisit     `json:"daily_visits"` // timeline, newest first
}

type DailyVisit struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
