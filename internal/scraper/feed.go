package scraper

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"thinkink/ingest/internal/sources"
)

// FetchFeed retrieves and parses a source's RSS or Atom feed, returning at
// most maxItemsPerFeed candidates in document order. Fetch and parse failures
// are logged and yield an empty slice: one failing source must never abort a
// batch.
func (s *Scraper) FetchFeed(ctx context.Context, src sources.Source) []Candidate {
	body, err := s.fetch(ctx, src.FeedURL, feedUserAgent)
	if err != nil {
		log.Warn().
			Err(err).
			Str("source", src.Name).
			Str("url", src.FeedURL).
			Msg("Failed to fetch feed")
		return nil
	}

	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		log.Warn().
			Err(err).
			Str("source", src.Name).
			Str("url", src.FeedURL).
			Msg("Failed to parse feed")
		return nil
	}

	var items []Candidate
	for _, entry := range feed.Items {
		if len(items) >= maxItemsPerFeed {
			break
		}

		link := strings.TrimSpace(entry.Link)
		title := strings.TrimSpace(entry.Title)
		if link == "" || title == "" {
			continue
		}

		c := Candidate{
			URL:         link,
			Title:       title,
			Description: strings.TrimSpace(entry.Description),
			Source:      src.Name,
			Category:    src.Category,
		}
		// Entries without a parsable date default to now, which floats them to
		// the top of the descending-date ranking.
		if entry.PublishedParsed != nil {
			c.PublishDate = *entry.PublishedParsed
		} else {
			c.PublishDate = s.now()
		}
		items = append(items, c)
	}

	log.Debug().
		Str("source", src.Name).
		Int("items", len(items)).
		Msg("Feed fetched")
	return items
}
