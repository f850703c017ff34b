// Package handler contains HTTP handlers for the API.
// Handlers are responsible for:
// - Parsing and validating HTTP requests
// - Calling use case methods
// - Converting results to HTTP responses
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yash-surviantllc/FixRx-sub003/src/app/http/dto"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/usecase"
)

// HealthSource is what the liveness endpoint reads: pool counters and a
// cache ping.
type HealthSource interface {
	ports.PoolStatsSource
	CacheAlive(ctx context.Context) bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	source  HealthSource
	monitor *usecase.HealthMonitor
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(source HealthSource, monitor *usecase.HealthMonitor) *HealthHandler {
	return &HealthHandler{
		source:  source,
		monitor: monitor,
	}
}

// Health reports pool counters and cache reachability.
// It answers 503 when the pool is closed or the cache cannot be reached.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:     usecase.StatusOK,
		Pool:       dto.NewPoolResponse(h.source.Stats()),
		CacheAlive: h.source.CacheAlive(c.Request.Context()),
	}

	code := http.StatusOK
	if !resp.CacheAlive || h.source.Closed() {
		resp.Status = usecase.StatusDegraded
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// DetailedHealth returns the monitor's latest snapshot, taking one first if
// the monitor has not sampled yet.
// GET /health/detailed
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	snap, ok := h.monitor.Last()
	if !ok {
		snap = h.monitor.Check(c.Request.Context())
	}

	code := http.StatusOK
	if !snap.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, snap)
}
