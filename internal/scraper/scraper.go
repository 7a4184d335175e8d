package scraper

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"thinkink/ingest/internal/sources"
)

// Status marks the outcome of a full-content fetch.
type Status string

const (
	StatusScraped Status = "scraped"
	StatusFailed  Status = "failed"
)

const (
	feedUserAgent = "Mozilla/5.0 (compatible; ThinkInkBot/1.0)"
	pageUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	maxItemsPerFeed  = 10
	maxContentLength = 20000

	defaultTimeout      = 15 * time.Second
	defaultMaxRetries   = 3
	defaultRetryDelay   = 1 * time.Second
	defaultSourceDelay  = 1 * time.Second
	defaultRequestDelay = 2 * time.Second
)

// Candidate is a lightweight feed entry before full-content fetch. It lives
// only within a single run.
type Candidate struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PublishDate time.Time `json:"publish_date"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
}

// ScrapedPost is the enriched record produced by full-content extraction.
type ScrapedPost struct {
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PublishDate   time.Time `json:"publish_date"`
	Source        string    `json:"source"`
	Category      string    `json:"category"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	Tags          []string  `json:"tags"`
	FeaturedImage string    `json:"featured_image,omitempty"`
	WordCount     int       `json:"word_count"`
	ScrapedAt     time.Time `json:"scraped_at"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
}

// Options configures a Scraper. Zero values fall back to defaults; delays may
// be set negative to disable pacing (useful in tests).
type Options struct {
	Client       *http.Client
	MaxRetries   int
	RetryDelay   time.Duration
	SourceDelay  time.Duration
	RequestDelay time.Duration
}

// Scraper fetches feeds and full page content over HTTP. All network loops are
// deliberately sequential with fixed pauses: throughput is sacrificed for
// politeness to the upstream hosts.
type Scraper struct {
	client       *http.Client
	parser       *gofeed.Parser
	maxRetries   int
	retryDelay   time.Duration
	sourceDelay  time.Duration
	requestDelay time.Duration
	now          func() time.Time
}

// New wires a Scraper from the given options.
func New(opts Options) *Scraper {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.SourceDelay == 0 {
		opts.SourceDelay = defaultSourceDelay
	}
	if opts.RequestDelay == 0 {
		opts.RequestDelay = defaultRequestDelay
	}

	return &Scraper{
		client:       client,
		parser:       gofeed.NewParser(),
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		sourceDelay:  opts.SourceDelay,
		requestDelay: opts.RequestDelay,
		now:          time.Now,
	}
}

// ScrapeAllSources fetches every source's feed in order, merges the candidates,
// ranks them by publish date descending and fetches full content for the first
// limit items. Ties keep the original order, so the selection is deterministic
// for identical inputs.
func (s *Scraper) ScrapeAllSources(ctx context.Context, srcs []sources.Source, limit int) []ScrapedPost {
	var candidates []Candidate
	for i, src := range srcs {
		if i > 0 {
			if err := sleepCtx(ctx, s.sourceDelay); err != nil {
				log.Warn().Err(err).Msg("Source iteration cancelled")
				break
			}
		}
		candidates = append(candidates, s.FetchFeed(ctx, src)...)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PublishDate.After(candidates[j].PublishDate)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]ScrapedPost, 0, len(candidates))
	for i, c := range candidates {
		if i > 0 {
			if err := sleepCtx(ctx, s.requestDelay); err != nil {
				log.Warn().Err(err).Msg("Content fetching cancelled")
				break
			}
		}
		results = append(results, s.FetchPostContent(ctx, c))
	}
	return results
}

// ScrapeSpecificURLs fetches full content for explicitly supplied page URLs,
// outside any configured source.
func (s *Scraper) ScrapeSpecificURLs(ctx context.Context, urls []string) []ScrapedPost {
	results := make([]ScrapedPost, 0, len(urls))
	for i, u := range urls {
		if i > 0 {
			if err := sleepCtx(ctx, s.requestDelay); err != nil {
				log.Warn().Err(err).Msg("Content fetching cancelled")
				break
			}
		}
		c := Candidate{
			URL:      u,
			Title:    "Loading...",
			Source:   "Manual",
			Category: "custom",
		}
		results = append(results, s.FetchPostContent(ctx, c))
	}
	return results
}

// sleepCtx pauses for d, returning early if the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
