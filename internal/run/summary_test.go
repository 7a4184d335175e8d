package run

import (
	"testing"

	"thinkink/ingest/internal/scraper"
)

func TestSummarizeCounts(t *testing.T) {
	posts := []scraper.ScrapedPost{
		{Source: "Alpha", Category: "tech", Status: scraper.StatusScraped, WordCount: 100},
		{Source: "Alpha", Category: "tech", Status: scraper.StatusScraped, WordCount: 200},
		{Source: "Beta", Category: "news", Status: scraper.StatusFailed, WordCount: 0},
	}

	s := Summarize(posts)

	if s.Total != 3 || s.Successful != 2 || s.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if len(s.Sources) != 2 || s.Sources[0] != "Alpha" || s.Sources[1] != "Beta" {
		t.Fatalf("unexpected sources: %v", s.Sources)
	}
	if len(s.Categories) != 2 {
		t.Fatalf("unexpected categories: %v", s.Categories)
	}
	if s.AvgWords != 100 {
		t.Fatalf("expected avg 100, got %d", s.AvgWords)
	}
	if s.LastUpdated.IsZero() {
		t.Fatal("expected last_updated to be set")
	}
}

func TestSummarizeRoundsAverage(t *testing.T) {
	posts := []scraper.ScrapedPost{
		{Status: scraper.StatusScraped, WordCount: 10},
		{Status: scraper.StatusScraped, WordCount: 11},
	}
	if s := Summarize(posts); s.AvgWords != 11 {
		t.Fatalf("expected rounded average 11, got %d", s.AvgWords)
	}
}

func TestSummarizeEmptyBatch(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Successful != 0 || s.Failed != 0 {
		t.Fatalf("unexpected counts for empty batch: %+v", s)
	}
	if s.AvgWords != 0 {
		t.Fatalf("expected zero average for empty batch, got %d", s.AvgWords)
	}
	if s.Sources == nil || s.Categories == nil {
		t.Fatal("expected empty slices, not nil")
	}
}
