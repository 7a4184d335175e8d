package run

import (
	"math"
	"time"

	"thinkink/ingest/internal/scraper"
)

// Summary aggregates one run's batch.
type Summary struct {
	Total       int       `json:"total"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
	Sources     []string  `json:"sources"`
	Categories  []string  `json:"categories"`
	AvgWords    int       `json:"avg_words"`
	LastUpdated time.Time `json:"last_updated"`
}

// Summarize computes the aggregate over a batch. The average-words divisor is
// floored at one so an empty batch yields zero rather than dividing by zero.
func Summarize(posts []scraper.ScrapedPost) Summary {
	s := Summary{
		Total:       len(posts),
		Sources:     []string{},
		Categories:  []string{},
		LastUpdated: time.Now().UTC(),
	}

	seenSources := make(map[string]struct{})
	seenCategories := make(map[string]struct{})
	totalWords := 0

	for _, p := range posts {
		if p.Status == scraper.StatusScraped {
			s.Successful++
		}
		totalWords += p.WordCount

		if _, ok := seenSources[p.Source]; !ok {
			seenSources[p.Source] = struct{}{}
			s.Sources = append(s.Sources, p.Source)
		}
		if _, ok := seenCategories[p.Category]; !ok {
			seenCategories[p.Category] = struct{}{}
			s.Categories = append(s.Categories, p.Category)
		}
	}

	s.Failed = s.Total - s.Successful

	divisor := s.Total
	if divisor < 1 {
		divisor = 1
	}
	s.AvgWords = int(math.Round(float64(totalWords) / float64(divisor)))

	return s
}
