package scraper

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// FetchPostContent retrieves a candidate's page and runs content extraction.
// It never returns an error: every failure is represented in the returned
// record's Status field, so callers need no exception handling per item.
func (s *Scraper) FetchPostContent(ctx context.Context, c Candidate) ScrapedPost {
	body, err := s.fetch(ctx, c.URL, pageUserAgent)
	if err != nil {
		log.Warn().Err(err).Str("url", c.URL).Msg("Failed to fetch post")
		return s.failedPost(c, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Str("url", c.URL).Msg("Failed to parse post markup")
		return s.failedPost(c, err)
	}

	post := ScrapedPost{
		URL:         c.URL,
		Title:       c.Title,
		Description: c.Description,
		PublishDate: c.PublishDate,
		Source:      c.Source,
		Category:    c.Category,
		Author:      "Unknown",
		Tags:        []string{},
		ScrapedAt:   s.now(),
		Status:      StatusScraped,
	}

	// An extraction shortfall is not a failure: the record keeps status
	// "scraped" and falls back to the feed description.
	if content, ok := extractContent(doc); ok {
		post.WordCount = len(strings.Fields(content))
		if len(content) > maxContentLength {
			content = content[:maxContentLength]
		}
		post.Content = content
	} else {
		post.Content = c.Description
	}

	if author, ok := extractAuthor(doc); ok {
		post.Author = author
	}
	post.Tags = extractTags(doc)
	if img, ok := extractFeaturedImage(doc, c.URL); ok {
		post.FeaturedImage = img
	}

	return post
}

// failedPost builds the degraded record for a candidate whose fetch exhausted
// all retries. Content falls back to the feed description, or a literal
// placeholder when that is also empty.
func (s *Scraper) failedPost(c Candidate, err error) ScrapedPost {
	content := c.Description
	if content == "" {
		content = "Content unavailable"
	}
	return ScrapedPost{
		URL:         c.URL,
		Title:       c.Title,
		Description: c.Description,
		PublishDate: c.PublishDate,
		Source:      c.Source,
		Category:    c.Category,
		Content:     content,
		Author:      "Unknown",
		Tags:        []string{},
		WordCount:   0,
		ScrapedAt:   s.now(),
		Status:      StatusFailed,
		Error:       err.Error(),
	}
}
