package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"thinkink/ingest/internal/run"
	"thinkink/ingest/internal/sources"
	"thinkink/ingest/internal/storage"
)

const defaultTrendingLimit = 10
const maxRecentItems = 10

// ScrapeHandler holds dependencies for the scraping API.
type ScrapeHandler struct {
	runner *run.Runner
	store  *storage.Store // nil when no database is configured
}

// NewScrapeHandler creates a new handler instance.
func NewScrapeHandler(runner *run.Runner, store *storage.Store) *ScrapeHandler {
	return &ScrapeHandler{runner: runner, store: store}
}

type trendingRequest struct {
	Limit    int      `json:"limit"`
	Sources  []string `json:"sources"`
	SaveToDB *bool    `json:"save_to_db"`
}

type urlsRequest struct {
	URLs     []string `json:"urls"`
	SaveToDB *bool    `json:"save_to_db"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Trending triggers a source-driven scraping run.
func (h *ScrapeHandler) Trending(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var req trendingRequest
	if err := decodeBody(r, &req); err != nil {
		log.Warn().Err(err).Msg("Invalid trending request body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultTrendingLimit
	}

	params := run.Params{
		Limit:    req.Limit,
		Sources:  req.Sources,
		SaveToDB: req.SaveToDB == nil || *req.SaveToDB,
		Trigger:  run.TriggerTrending,
	}

	result, err := h.runner.Run(r.Context(), params)
	if err != nil {
		if isValidationError(err) {
			log.Warn().Err(err).Msg("Trending run rejected")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		log.Error().Err(err).Msg("Trending run failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "scraping failed"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// URLs triggers a run over explicitly supplied page URLs.
func (h *ScrapeHandler) URLs(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var req urlsRequest
	if err := decodeBody(r, &req); err != nil {
		log.Warn().Err(err).Msg("Invalid urls request body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	params := run.URLParams{
		URLs:     req.URLs,
		SaveToDB: req.SaveToDB == nil || *req.SaveToDB,
	}

	result, err := h.runner.RunURLs(r.Context(), params)
	if err != nil {
		if isValidationError(err) {
			log.Warn().Err(err).Msg("URL run rejected")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		log.Error().Err(err).Msg("URL run failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "scraping failed"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Status reports operational state and the last run.
func (h *ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	recent, lastScrape := h.runner.Recent()

	resp := map[string]any{
		"status":  "operational",
		"sources": h.runner.SourceCount(),
		"recent":  len(recent),
	}
	if !lastScrape.IsZero() {
		resp["last_scrape"] = lastScrape.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sources lists the configured registry.
func (h *ScrapeHandler) Sources(w http.ResponseWriter, r *http.Request) {
	type sourceInfo struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}

	all := h.runner.Sources()
	out := make([]sourceInfo, 0, len(all))
	for _, s := range all {
		out = append(out, sourceInfo{Name: s.Name, Category: s.Category})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out, "total": len(out)})
}

// Recent returns the last run's items.
func (h *ScrapeHandler) Recent(w http.ResponseWriter, r *http.Request) {
	recent, lastScrape := h.runner.Recent()

	total := len(recent)
	if len(recent) > maxRecentItems {
		recent = recent[:maxRecentItems]
	}

	resp := map[string]any{"items": recent, "total": total}
	if !lastScrape.IsZero() {
		resp["last_scrape"] = lastScrape.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearRecent drops the recent-run cache.
func (h *ScrapeHandler) ClearRecent(w http.ResponseWriter, r *http.Request) {
	h.runner.ClearRecent()
	writeJSON(w, http.StatusOK, map[string]any{"message": "cache cleared"})
}

// Posts lists persisted posts with optional source/category/status filters.
func (h *ScrapeHandler) Posts(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "persistence not configured"})
		return
	}

	query := r.URL.Query()
	filter := storage.PostFilter{
		Source:   query.Get("source"),
		Category: query.Get("category"),
		Status:   query.Get("status"),
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid 'limit' parameter"})
			return
		}
		filter.Limit = n
	}
	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid 'offset' parameter"})
			return
		}
		filter.Offset = n
	}

	posts, err := h.store.ListPosts(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list posts")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	total, err := h.store.CountPosts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to count posts")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "total": total})
}

func isValidationError(err error) bool {
	return errors.Is(err, run.ErrLimitOutOfRange) ||
		errors.Is(err, run.ErrNoURLs) ||
		errors.Is(err, run.ErrTooManyURLs) ||
		errors.Is(err, sources.ErrNoSources)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
