// Package api implements the HTTP surface of the classic search service:
// query parsing, translation, execution, preview rendering, and response
// serialization.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ID2797370/arxiv-search/internal/analytics"
	"github.com/ID2797370/arxiv-search/internal/cache"
	"github.com/ID2797370/arxiv-search/internal/classic"
	"github.com/ID2797370/arxiv-search/internal/fulltext"
	"github.com/ID2797370/arxiv-search/internal/highlight"
	"github.com/ID2797370/arxiv-search/internal/index"
	"github.com/ID2797370/arxiv-search/internal/query"
	"github.com/ID2797370/arxiv-search/pkg/config"
	pkgerrors "github.com/ID2797370/arxiv-search/pkg/errors"
	"github.com/ID2797370/arxiv-search/pkg/logger"
	"github.com/ID2797370/arxiv-search/pkg/metrics"
)

// SearchStore executes translated queries and serves paper metadata.
type SearchStore interface {
	Search(ctx context.Context, q query.Query, limit, offset int) (*index.SearchResult, error)
	GetPaper(ctx context.Context, id string) (*index.Paper, error)
}

// FulltextRetriever fetches extracted full-text content by identifier.
type FulltextRetriever interface {
	Retrieve(ctx context.Context, documentID string) (*fulltext.Fulltext, error)
}

// Result is one rendered search hit: paper metadata plus a bounded,
// markup-safe snippet of the highlighted abstract.
type Result struct {
	index.Paper
	HighlightedTitle string  `json:"highlighted_title"`
	Snippet          string  `json:"snippet"`
	Rank             float64 `json:"rank"`
}

// QueryResponse is the body of a successful /query call.
type QueryResponse struct {
	Query      string   `json:"query"`
	Phrase     string   `json:"phrase"`
	Start      int      `json:"start"`
	MaxResults int      `json:"max_results"`
	TotalHits  int      `json:"total_hits"`
	Results    []Result `json:"results"`
}

type Handler struct {
	translator *classic.Translator
	store      SearchStore
	cache      *cache.ResultCache
	collector  *analytics.Collector
	fulltext   FulltextRetriever
	metrics    *metrics.Metrics
	cfg        config.SearchConfig
	logger     *slog.Logger
}

func New(
	translator *classic.Translator,
	store SearchStore,
	resultCache *cache.ResultCache,
	collector *analytics.Collector,
	ft FulltextRetriever,
	m *metrics.Metrics,
	cfg config.SearchConfig,
) *Handler {
	return &Handler{
		translator: translator,
		store:      store,
		cache:      resultCache,
		collector:  collector,
		fulltext:   ft,
		metrics:    m,
		cfg:        cfg,
		logger:     slog.Default().With("component", "api-handler"),
	}
}

// Query is the main classic API endpoint: parses search_query into a
// Phrase, translates it, executes through the result cache, and renders
// bounded previews for each hit.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	raw := r.URL.Query().Get("search_query")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'search_query' is required")
		return
	}
	offset, limit, ok := h.paging(w, r)
	if !ok {
		return
	}

	phrase, err := classic.ParseQuery(raw)
	if err != nil {
		h.countQuery("malformed")
		h.trackRejected(ctx, raw)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := h.translator.Translate(phrase)
	if err != nil {
		h.translationFailed(ctx, w, raw, err)
		return
	}

	var result *index.SearchResult
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, phrase.String(), limit, offset,
			func() (*index.SearchResult, error) {
				return h.store.Search(ctx, q, limit, offset)
			})
	} else {
		result, err = h.store.Search(ctx, q, limit, offset)
	}
	if err != nil {
		h.countQuery("error")
		log.Error("search execution failed", "query", raw, "error", err)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	resp := &QueryResponse{
		Query:      raw,
		Phrase:     phrase.String(),
		Start:      offset,
		MaxResults: limit,
		TotalHits:  result.TotalHits,
		Results:    make([]Result, 0, len(result.Hits)),
	}
	for _, hit := range result.Hits {
		snippet := highlight.Preview(hit.HighlightedAbstract, h.cfg.FragmentSize,
			h.cfg.HighlightStartTag, h.cfg.HighlightEndTag)
		if h.metrics != nil {
			h.metrics.PreviewBytes.Observe(float64(len(snippet)))
		}
		resp.Results = append(resp.Results, Result{
			Paper:            hit.Paper,
			HighlightedTitle: hit.HighlightedTitle,
			Snippet:          snippet,
			Rank:             hit.Rank,
		})
	}

	latency := time.Since(start)
	outcome := "ok"
	if result.TotalHits == 0 {
		outcome = "zero_result"
	}
	h.countQuery(outcome)
	if h.metrics != nil {
		status := "miss"
		if cacheHit {
			status = "hit"
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
		h.metrics.SearchLatency.WithLabelValues(status).Observe(latency.Seconds())
	}

	log.Info("query completed",
		"query", raw,
		"total_hits", result.TotalHits,
		"returned", len(resp.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.collector != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		if result.TotalHits == 0 {
			eventType = analytics.EventZeroResult
		}
		h.collector.Track(analytics.QueryEvent{
			Type:      eventType,
			RawQuery:  raw,
			Phrase:    phrase.String(),
			Fields:    phraseFields(phrase),
			TotalHits: result.TotalHits,
			Returned:  len(resp.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Paper serves the metadata endpoint for a single identifier.
func (h *Handler) Paper(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	paper, err := h.store.GetPaper(r.Context(), id)
	if err != nil {
		status := pkgerrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("paper lookup failed", "id", id, "error", err)
			h.writeError(w, status, "paper lookup failed")
			return
		}
		h.writeError(w, status, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, paper)
}

// Fulltext proxies extracted full-text content for a single identifier.
func (h *Handler) Fulltext(w http.ResponseWriter, r *http.Request) {
	if h.fulltext == nil {
		h.writeError(w, http.StatusServiceUnavailable, "fulltext retrieval is disabled")
		return
	}
	id := r.PathValue("id")
	ft, err := h.fulltext.Retrieve(r.Context(), id)
	if err != nil {
		h.countFulltext(err)
		h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.countFulltextOK()
	h.writeJSON(w, http.StatusOK, ft)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) paging(w http.ResponseWriter, r *http.Request) (offset, limit int, ok bool) {
	limit = h.cfg.DefaultLimit
	if v := r.URL.Query().Get("max_results"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "max_results must be a positive integer")
			return 0, 0, false
		}
		if parsed > h.cfg.MaxResults {
			parsed = h.cfg.MaxResults
		}
		limit = parsed
	}
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "start must be a non-negative integer")
			return 0, 0, false
		}
		offset = parsed
	}
	return offset, limit, true
}

func (h *Handler) translationFailed(ctx context.Context, w http.ResponseWriter, raw string, err error) {
	log := logger.FromContext(ctx)

	var malformed *classic.MalformedPhraseError
	if errors.As(err, &malformed) {
		h.countQuery("malformed")
		h.countTranslationError("malformed")
		h.trackRejected(ctx, raw)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var unsupported *classic.UnsupportedFieldError
	if errors.As(err, &unsupported) {
		// Builder mappings cover the whole field enumeration; a gap is a
		// provisioning bug, not a client mistake.
		h.countQuery("error")
		h.countTranslationError("unsupported_field")
		log.Error("field mapping incomplete", "query", raw, "error", err)
		h.writeError(w, http.StatusInternalServerError, "search misconfigured")
		return
	}

	h.countQuery("error")
	log.Error("translation failed", "query", raw, "error", err)
	h.writeError(w, http.StatusInternalServerError, "translation failed")
}

func (h *Handler) trackRejected(ctx context.Context, raw string) {
	if h.collector == nil {
		return
	}
	h.collector.Track(analytics.QueryEvent{
		Type:      analytics.EventRejected,
		RawQuery:  raw,
		Timestamp: time.Now().UTC(),
		RequestID: logger.RequestID(ctx),
	})
}

func (h *Handler) countQuery(outcome string) {
	if h.metrics != nil {
		h.metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countTranslationError(kind string) {
	if h.metrics != nil {
		h.metrics.TranslationErrors.WithLabelValues(kind).Inc()
	}
}

func (h *Handler) countFulltext(err error) {
	if h.metrics == nil {
		return
	}
	if errors.Is(err, pkgerrors.ErrInvalidIdentifier) {
		h.metrics.FulltextRequests.WithLabelValues("invalid").Inc()
		return
	}
	h.metrics.FulltextRequests.WithLabelValues("unavailable").Inc()
}

func (h *Handler) countFulltextOK() {
	if h.metrics != nil {
		h.metrics.FulltextRequests.WithLabelValues("ok").Inc()
	}
}

// phraseFields returns the distinct field names referenced by a phrase,
// nested phrases included.
func phraseFields(phrase classic.Phrase) []string {
	seen := make(map[string]struct{})
	var walk func(classic.Phrase)
	walk = func(p classic.Phrase) {
		for _, token := range p {
			switch tok := token.(type) {
			case classic.Term:
				seen[tok.Field.String()] = struct{}{}
			case classic.Phrase:
				walk(tok)
			}
		}
	}
	walk(phrase)
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	return fields
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
