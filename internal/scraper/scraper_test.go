package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"thinkink/ingest/internal/sources"
)

// feedSite serves RSS feeds under /feed/<name> and article pages under /post/.
type feedSite struct {
	srv   *httptest.Server
	feeds map[string]string
}

func newFeedSite(t *testing.T) *feedSite {
	t.Helper()
	site := &feedSite{feeds: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/feed/")
		doc, ok := site.feeds[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, doc)
	})
	mux.HandleFunc("/post/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<article>%s</article>", strings.Repeat("article body text ", 20))
	})
	site.srv = httptest.NewServer(mux)
	t.Cleanup(site.srv.Close)
	return site
}

func (f *feedSite) addFeed(name string, dates []time.Time) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>` + name + `</title>`)
	for i, d := range dates {
		fmt.Fprintf(&b, `<item><title>%s %d</title><link>%s/post/%s-%d</link><pubDate>%s</pubDate><description>d</description></item>`,
			name, i, f.srv.URL, name, i, d.Format(time.RFC1123Z))
	}
	b.WriteString("</channel></rss>")
	f.feeds[name] = b.String()
}

func (f *feedSite) source(name, category string) sources.Source {
	return sources.Source{Name: name, FeedURL: f.srv.URL + "/feed/" + name, Category: category}
}

func TestScrapeAllSourcesBoundedAndSorted(t *testing.T) {
	site := newFeedSite(t)
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	// Alpha yields 3 items, Beta 12 (truncated to 10), dates interleaved
	// across the two sources.
	var alphaDates, betaDates []time.Time
	for i := 0; i < 3; i++ {
		alphaDates = append(alphaDates, base.Add(-time.Duration(2*i)*time.Hour))
	}
	for i := 0; i < 12; i++ {
		betaDates = append(betaDates, base.Add(-time.Duration(2*i+1)*time.Hour))
	}
	site.addFeed("Alpha", alphaDates)
	site.addFeed("Beta", betaDates)

	s := testScraper(site.srv.Client())
	srcs := []sources.Source{site.source("Alpha", "tech"), site.source("Beta", "news")}

	results := s.ScrapeAllSources(context.Background(), srcs, 5)

	if len(results) != 5 {
		t.Fatalf("expected exactly 5 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].PublishDate.After(results[i-1].PublishDate) {
			t.Fatalf("results not sorted by date descending: %v before %v",
				results[i-1].PublishDate, results[i].PublishDate)
		}
	}
	// Newest item overall comes from Alpha, second newest from Beta.
	if results[0].Source != "Alpha" || results[1].Source != "Beta" {
		t.Fatalf("unexpected merge order: %s, %s", results[0].Source, results[1].Source)
	}
	for _, p := range results {
		if p.Status != StatusScraped {
			t.Fatalf("expected scraped status for %s, got %s", p.URL, p.Status)
		}
	}
}

func TestScrapeAllSourcesLimitLargerThanBatch(t *testing.T) {
	site := newFeedSite(t)
	site.addFeed("Solo", []time.Time{time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)})

	s := testScraper(site.srv.Client())
	results := s.ScrapeAllSources(context.Background(), []sources.Source{site.source("Solo", "tech")}, 50)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestScrapeAllSourcesToleratesFailingSource(t *testing.T) {
	site := newFeedSite(t)
	site.addFeed("Good", []time.Time{time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)})

	s := testScraper(site.srv.Client())
	srcs := []sources.Source{
		{Name: "Broken", FeedURL: site.srv.URL + "/feed/missing", Category: "tech"},
		site.source("Good", "tech"),
	}

	results := s.ScrapeAllSources(context.Background(), srcs, 5)
	if len(results) != 1 {
		t.Fatalf("expected the good source to survive, got %d results", len(results))
	}
	if results[0].Source != "Good" {
		t.Fatalf("unexpected source: %s", results[0].Source)
	}
}

func TestScrapeSpecificURLs(t *testing.T) {
	site := newFeedSite(t)

	s := testScraper(site.srv.Client())
	results := s.ScrapeSpecificURLs(context.Background(), []string{site.srv.URL + "/post/manual-1"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	p := results[0]
	if p.Source != "Manual" || p.Category != "custom" {
		t.Fatalf("expected synthesized manual candidate, got %+v", p)
	}
	if p.Status != StatusScraped {
		t.Fatalf("expected scraped status, got %s", p.Status)
	}
}

func TestScrapeSpecificURLsAllRetriesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	s := testScraper(srv.Client())
	results := s.ScrapeSpecificURLs(context.Background(), []string{srv.URL + "/post1"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	p := results[0]
	if p.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", p.Status)
	}
	if p.Content != "Content unavailable" {
		t.Fatalf("expected placeholder content, got %q", p.Content)
	}
	if p.WordCount != 0 {
		t.Fatalf("expected zero word count, got %d", p.WordCount)
	}
}

func TestScrapeAllSourcesHonorsCancellation(t *testing.T) {
	site := newFeedSite(t)
	site.addFeed("One", []time.Time{time.Now()})
	site.addFeed("Two", []time.Time{time.Now()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(Options{
		Client:       site.srv.Client(),
		RetryDelay:   time.Millisecond,
		SourceDelay:  time.Millisecond,
		RequestDelay: time.Millisecond,
	})
	results := s.ScrapeAllSources(ctx, []sources.Source{site.source("One", "t"), site.source("Two", "t")}, 5)

	// The first source may complete before the cancellation is observed at the
	// inter-source pause, but the run must stop early.
	if len(results) > 1 {
		t.Fatalf("expected early stop under cancelled context, got %d results", len(results))
	}
}
