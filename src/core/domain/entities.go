package domain

import (
	"fmt"
	"time"
)

// PoolConfiguration bounds and times the connection pool. It is immutable once
// the pool is opened.
type PoolConfiguration struct {
	MinSize          int
	MaxSize          int
	IdleTimeout      time.Duration
	AcquireTimeout   time.Duration
	EvictionInterval time.Duration
	ConnectTimeout   time.Duration
}

// Validate enforces 0 <= MinSize <= MaxSize and positive timings.
func (c PoolConfiguration) Validate() error {
	switch {
	case c.MaxSize < 1:
		return NewValidationError("MaxSize", "must be at least 1")
	case c.MinSize < 0:
		return NewValidationError("MinSize", "must not be negative")
	case c.MinSize > c.MaxSize:
		return NewValidationError("MinSize", fmt.Sprintf("must not exceed MaxSize (%d)", c.MaxSize))
	case c.AcquireTimeout <= 0:
		return NewValidationError("AcquireTimeout", "must be positive")
	case c.ConnectTimeout <= 0:
		return NewValidationError("ConnectTimeout", "must be positive")
	case c.IdleTimeout <= 0:
		return NewValidationError("IdleTimeout", "must be positive")
	case c.EvictionInterval <= 0:
		return NewValidationError("EvictionInterval", "must be positive")
	}
	return nil
}

// PoolStats is a point-in-time view of the pool.
// IdleCount <= TotalCount <= MaxSize always holds.
type PoolStats struct {
	TotalCount    int `json:"total"`
	IdleCount     int `json:"idle"`
	AcquiredCount int `json:"acquired"`
	WaitingCount  int `json:"waiting"`
	MaxSize       int `json:"max"`
}

// Saturated reports whether every connection is checked out and callers are queued.
func (s PoolStats) Saturated() bool {
	return s.WaitingCount > 0 && s.IdleCount == 0 && s.TotalCount >= s.MaxSize
}

// QueryResult is produced once per statement and never mutated afterwards.
type QueryResult struct {
	Rows       []map[string]any
	RowCount   int64
	CommandTag string
	Duration   time.Duration
}

// DurationMs reports the execution time in milliseconds.
func (r *QueryResult) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// VendorStatusActive is the only status returned by proximity search.
const VendorStatusActive = "active"

// Vendor is a located service provider returned by proximity search.
type Vendor struct {
	ID                string   `json:"id"`
	BusinessName      string   `json:"business_name"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Status            string   `json:"status"`
	ServiceCategories []string `json:"service_categories"`
	Rating            float64  `json:"rating"`

	// DistanceScore is |Δlat| + |Δlng| in degrees from the search center.
	DistanceScore float64 `json:"distance_score"`
}
