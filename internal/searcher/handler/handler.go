package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/initgrep/blogsearch/internal/analytics"
	"github.com/initgrep/blogsearch/internal/catalog"
	"github.com/initgrep/blogsearch/internal/indexer"
	"github.com/initgrep/blogsearch/internal/presenter"
	"github.com/initgrep/blogsearch/internal/searcher/cache"
	"github.com/initgrep/blogsearch/internal/searcher/executor"
	"github.com/initgrep/blogsearch/internal/searcher/parser"
	apperrors "github.com/initgrep/blogsearch/pkg/errors"
	"github.com/initgrep/blogsearch/pkg/logger"
	"github.com/initgrep/blogsearch/pkg/metrics"
)

var errUnavailable = apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "search index not built")

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// IndexState exposes the built index; *indexer.Engine satisfies it.
type IndexState interface {
	Stats() (indexer.Stats, error)
	Store() (*catalog.Store, error)
}

type Handler struct {
	executor     SearchExecutor
	index        IndexState
	cache        *cache.QueryCache
	collector    *analytics.Collector
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

type Option func(*Handler)

func WithCache(c *cache.QueryCache) Option {
	return func(h *Handler) { h.cache = c }
}

func WithCollector(c *analytics.Collector) Option {
	return func(h *Handler) { h.collector = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func New(exec SearchExecutor, index IndexState, defaultLimit, maxResults int, opts ...Option) *Handler {
	h := &Handler{
		executor:     exec,
		index:        index,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       logger.WithComponent("search-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents", h.Documents)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeAppError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"limit %q must be a positive integer", limitStr), "")
			return
		}
		limit = parsed
	}
	if h.maxResults > 0 && (limit <= 0 || limit > h.maxResults) {
		limit = h.maxResults
	}

	stats, err := h.index.Stats()
	if err != nil {
		h.recordQuery("error", "none", 0, start)
		log.Warn("search rejected", "query", query, "error", err)
		h.writeAppError(w, errUnavailable, "")
		return
	}

	plan := parser.Parse(query)
	if plan.Empty() {
		h.recordQuery("empty", "none", 0, start)
		h.writeJSON(w, http.StatusOK, &executor.SearchResult{
			Query:   query,
			Results: []presenter.Hit{},
		})
		return
	}

	var result *executor.SearchResult
	cacheStatus := "disabled"
	if h.cache != nil {
		var hit bool
		result, hit, err = h.cache.GetOrCompute(ctx, stats.Fingerprint, plan, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
		h.recordCache(hit)
	} else {
		result, err = h.executor.Execute(ctx, plan, limit)
	}
	if err != nil {
		h.recordQuery("error", cacheStatus, 0, start)
		log.Error("search execution failed", "query", query, "error", err)
		h.writeAppError(w, err, "search failed")
		return
	}

	latency := time.Since(start)
	resultType := "hit"
	if result.TotalHits == 0 {
		resultType = "zero_result"
	}
	h.recordQuery(resultType, cacheStatus, len(result.Results), start)

	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache", cacheStatus,
		"latency_ms", latency.Milliseconds(),
	)
	if h.collector != nil {
		h.collector.Track(analytics.SearchEvent{
			Type:      analytics.EventTypeFor(result.TotalHits),
			Query:     query,
			Terms:     plan.Terms,
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheStatus == "hit",
			Catalog:   stats.Fingerprint,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

// Documents lists the catalog newest first, the order the blog archive uses.
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	store, err := h.index.Store()
	if err != nil {
		h.writeAppError(w, errUnavailable, "")
		return
	}
	docs := store.Newest()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"total":     len(docs),
		"documents": docs,
	})
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	store, err := h.index.Store()
	if err != nil {
		h.writeAppError(w, errUnavailable, "")
		return
	}
	doc, err := store.Get(r.PathValue("id"))
	if err != nil {
		h.writeAppError(w, err, "document lookup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.index.Stats()
	if err != nil {
		h.writeAppError(w, errUnavailable, "")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
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

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) recordQuery(resultType, cacheStatus string, returned int, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(returned))
}

func (h *Handler) recordCache(hit bool) {
	if h.metrics == nil {
		return
	}
	if hit {
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
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

// writeAppError maps err to a status. Not-found and invalid-input errors are
// reported as is; anything else gets fallback so internals don't leak.
func (h *Handler) writeAppError(w http.ResponseWriter, err error, fallback string) {
	status := apperrors.HTTPStatusCode(err)
	switch {
	case errors.Is(err, apperrors.ErrDocumentNotFound), errors.Is(err, apperrors.ErrInvalidInput):
		h.writeError(w, status, err.Error())
	case status == http.StatusServiceUnavailable:
		h.writeJSON(w, status, map[string]string{
			"error":  apperrors.ErrUnavailable.Error(),
			"reason": unavailableReason(err),
		})
	default:
		h.writeError(w, status, fallback)
	}
}

func unavailableReason(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "search index not built"
}
