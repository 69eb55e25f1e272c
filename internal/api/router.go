package api

import (
	"net/http"
	"time"

	"github.com/ID2797370/arxiv-search/pkg/health"
	"github.com/ID2797370/arxiv-search/pkg/metrics"
	"github.com/ID2797370/arxiv-search/pkg/middleware"
)

// NewRouter builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	GET  /api/v1/query              → classic query endpoint
//	GET  /api/v1/papers/{id}        → paper metadata
//	GET  /api/v1/fulltext/{id}      → extracted full-text content
//	GET  /api/v1/cache/stats        → result-cache counters
//	POST /api/v1/cache/invalidate   → flush the result cache
//	GET  /health/live               → liveness probe
//	GET  /health/ready              → readiness probe
//
// Middleware chain (outermost first): RequestID → Metrics → Timeout.
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/query", h.Query)
	mux.HandleFunc("GET /api/v1/papers/{id}", h.Paper)
	mux.HandleFunc("GET /api/v1/fulltext/{id}", h.Fulltext)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)

	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(timeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)
	return chain
}
