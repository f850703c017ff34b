package dto

import "github.com/yash-surviantllc/FixRx-sub003/src/core/domain"

// PoolResponse is the pool section of GET /health.
type PoolResponse struct {
	Total   int `json:"total"`
	Idle    int `json:"idle"`
	Waiting int `json:"waiting"`
	Max     int `json:"max"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string       `json:"status"`
	Pool       PoolResponse `json:"pool"`
	CacheAlive bool         `json:"cache_alive"`
}

// NewPoolResponse maps pool statistics.
func NewPoolResponse(s domain.PoolStats) PoolResponse {
	return PoolResponse{
		Total:   s.TotalCount,
		Idle:    s.IdleCount,
		Waiting: s.WaitingCount,
		Max:     s.MaxSize,
	}
}
