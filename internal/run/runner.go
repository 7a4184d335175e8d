package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"thinkink/ingest/internal/config"
	"thinkink/ingest/internal/scraper"
	"thinkink/ingest/internal/snapshot"
	"thinkink/ingest/internal/sources"
	"thinkink/ingest/internal/storage"
)

// Validation errors returned before any network activity.
var (
	ErrLimitOutOfRange = fmt.Errorf("limit must be between 1 and %d", config.MaxScrapeLimit)
	ErrNoURLs          = errors.New("at least one URL is required")
	ErrTooManyURLs     = fmt.Errorf("at most %d URLs are allowed", config.MaxCustomURLs)
)

// Trigger labels what started a run; it prefixes the snapshot filename.
const (
	TriggerTrending  = "trending"
	TriggerScheduled = "scheduled"
	TriggerCustom    = "custom"
)

// Params configure a source-driven run.
type Params struct {
	Limit    int
	Sources  []string
	SaveToDB bool
	Trigger  string
}

// URLParams configure a run over explicitly supplied URLs.
type URLParams struct {
	URLs     []string
	SaveToDB bool
}

// Result is what a run hands back to its caller.
type Result struct {
	Items       []scraper.ScrapedPost `json:"items"`
	Summary     Summary               `json:"summary"`
	Persistence *storage.Outcome      `json:"persistence,omitempty"`
	DurationMs  int64                 `json:"duration_ms"`
}

// PostStore is the persistence collaborator a run hands its batch to.
type PostStore interface {
	SaveScraped(ctx context.Context, posts []scraper.ScrapedPost) (*storage.Outcome, error)
}

// Runner drives a full scraping run end to end: select sources, fetch feeds,
// rank and trim, fetch content, snapshot, summarize, optionally persist. Each
// invocation is a stateless sequential pipeline; there is no checkpointing or
// partial resume.
type Runner struct {
	registry  *sources.Registry
	scraper   *scraper.Scraper
	snapshots *snapshot.Store
	store     PostStore // nil disables persistence

	mu         sync.Mutex
	recent     []scraper.ScrapedPost
	lastScrape time.Time
}

// NewRunner wires a Runner. store may be nil when no database is configured.
func NewRunner(registry *sources.Registry, sc *scraper.Scraper, snapshots *snapshot.Store, store PostStore) *Runner {
	return &Runner{
		registry:  registry,
		scraper:   sc,
		snapshots: snapshots,
		store:     store,
	}
}

// SourceCount returns the size of the configured registry.
func (r *Runner) SourceCount() int {
	return r.registry.Len()
}

// Sources returns the configured registry entries.
func (r *Runner) Sources() []sources.Source {
	return r.registry.All()
}

// Run executes a source-driven scraping run. Validation failures are returned
// before any network I/O; past that point the run always completes and returns
// a summary, even when every individual fetch failed.
func (r *Runner) Run(ctx context.Context, p Params) (*Result, error) {
	if p.Limit < 1 || p.Limit > config.MaxScrapeLimit {
		return nil, ErrLimitOutOfRange
	}
	selected, err := r.registry.Filter(p.Sources)
	if err != nil {
		return nil, err
	}
	trigger := p.Trigger
	if trigger == "" {
		trigger = TriggerTrending
	}

	log.Info().
		Int("limit", p.Limit).
		Int("sources", len(selected)).
		Bool("save_to_db", p.SaveToDB).
		Str("trigger", trigger).
		Msg("Starting scraping run")

	start := time.Now()
	items := r.scraper.ScrapeAllSources(ctx, selected, p.Limit)
	result := r.finish(ctx, trigger, items, p.SaveToDB, start)

	r.mu.Lock()
	r.recent = items
	r.lastScrape = time.Now().UTC()
	r.mu.Unlock()

	return result, nil
}

// RunURLs executes a run over explicitly supplied page URLs.
func (r *Runner) RunURLs(ctx context.Context, p URLParams) (*Result, error) {
	if len(p.URLs) == 0 {
		return nil, ErrNoURLs
	}
	if len(p.URLs) > config.MaxCustomURLs {
		return nil, ErrTooManyURLs
	}

	log.Info().
		Int("urls", len(p.URLs)).
		Bool("save_to_db", p.SaveToDB).
		Msg("Starting custom URL run")

	start := time.Now()
	items := r.scraper.ScrapeSpecificURLs(ctx, p.URLs)
	return r.finish(ctx, TriggerCustom, items, p.SaveToDB, start), nil
}

// finish runs the shared tail of every run: snapshot, summary, persistence.
// Snapshot and persistence failures are logged, not fatal.
func (r *Runner) finish(ctx context.Context, trigger string, items []scraper.ScrapedPost, saveToDB bool, start time.Time) *Result {
	if path, err := r.snapshots.Write(trigger, items); err != nil {
		log.Error().Err(err).Msg("Failed to write snapshot")
	} else {
		log.Debug().Str("path", path).Msg("Snapshot written")
	}

	result := &Result{
		Items:   items,
		Summary: Summarize(items),
	}

	if saveToDB && r.store != nil {
		outcome, err := r.store.SaveScraped(ctx, items)
		if err != nil {
			log.Error().Err(err).Msg("Persistence failed")
		} else {
			result.Persistence = outcome
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	log.Info().
		Int("total", result.Summary.Total).
		Int("successful", result.Summary.Successful).
		Int("failed", result.Summary.Failed).
		Int64("duration_ms", result.DurationMs).
		Msg("Scraping run finished")
	return result
}

// Recent returns the last source-driven run's batch and time. The cache is
// process-local and lost on restart.
func (r *Runner) Recent() ([]scraper.ScrapedPost, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scraper.ScrapedPost, len(r.recent))
	copy(out, r.recent)
	return out, r.lastScrape
}

// ClearRecent drops the recent-run cache.
func (r *Runner) ClearRecent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recent = nil
	r.lastScrape = time.Time{}
}
