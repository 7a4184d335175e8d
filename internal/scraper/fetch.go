package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// maxResponseBytes bounds how much of a response body is read into memory.
const maxResponseBytes = 4 << 20 // 4MB

// fetch performs a GET with retries and linear backoff: the pause before
// attempt n+1 is n times the base delay. The last error is returned once the
// attempt ceiling is exhausted.
func (s *Scraper) fetch(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, time.Duration(attempt-1)*s.retryDelay); err != nil {
				return nil, err
			}
		}

		body, err := s.fetchOnce(ctx, rawURL, userAgent)
		if err == nil {
			return body, nil
		}
		lastErr = err
		log.Debug().
			Err(err).
			Str("url", rawURL).
			Int("attempt", attempt).
			Int("max_attempts", s.maxRetries).
			Msg("Request failed")

		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (s *Scraper) fetchOnce(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
