package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"thinkink/ingest/internal/database"
	"thinkink/ingest/internal/models"
	"thinkink/ingest/internal/scraper"
)

const (
	scraperEmail    = "scraper@thinkink.local"
	scraperUsername = "Scraper Bot"
	// Placeholder credential for the system account; the ingestion service
	// never authenticates with it.
	scraperPassword = "ChangeMe123!"

	defaultListLimit = 50
	maxListLimit     = 100
)

// ItemError records a single post that could not be persisted.
type ItemError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Outcome summarizes one persistence pass over a scraped batch.
type Outcome struct {
	Saved   int         `json:"saved"`
	Skipped int         `json:"skipped"`
	Errors  []ItemError `json:"errors"`
}

// PostFilter narrows a posts listing. Zero values mean "no filter".
type PostFilter struct {
	Source   string
	Category string
	Status   string
	Limit    int
	Offset   int
}

// Store persists scraped posts and the scraper system account.
type Store struct {
	db *database.DB
}

// NewStore creates a new store instance.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// FindOrCreateScraperUser returns the scraper system account, creating it on
// first use. Creation is idempotent: a concurrent insert losing the race falls
// back to re-reading the existing row.
func (s *Store) FindOrCreateScraperUser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = ?", scraperEmail)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up scraper user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(scraperPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash scraper credential: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		scraperUsername, scraperEmail, string(hash))
	if err != nil {
		// UNIQUE violation means another run created the account first.
		if selErr := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = ?", scraperEmail); selErr == nil {
			return &user, nil
		}
		return nil, fmt.Errorf("failed to create scraper user: %w", err)
	}

	if err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = ?", scraperEmail); err != nil {
		return nil, fmt.Errorf("failed to read back scraper user: %w", err)
	}

	log.Info().Str("email", scraperEmail).Msg("Created scraper system account")
	return &user, nil
}

// SaveScraped writes a scraped batch to the posts table. A post whose exact
// title already exists is skipped; title equality is the sole dedup key, so
// near-duplicate titles are treated as distinct posts. Per-item write errors
// are collected into the outcome and never abort the rest of the batch.
func (s *Store) SaveScraped(ctx context.Context, posts []scraper.ScrapedPost) (*Outcome, error) {
	author, err := s.FindOrCreateScraperUser(ctx)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Errors: []ItemError{}}
	for _, p := range posts {
		var existing int
		err := s.db.GetContext(ctx, &existing, "SELECT COUNT(1) FROM posts WHERE title = ?", p.Title)
		if err != nil {
			out.Errors = append(out.Errors, ItemError{Title: p.Title, Message: err.Error()})
			continue
		}
		if existing > 0 {
			out.Skipped++
			log.Debug().Str("title", p.Title).Msg("Duplicate title, skipping")
			continue
		}

		content := p.Content
		if content == "" {
			content = p.Description
		}

		tagsJSON, err := json.Marshal(p.Tags)
		if err != nil {
			out.Errors = append(out.Errors, ItemError{Title: p.Title, Message: err.Error()})
			continue
		}

		featured := sql.NullString{String: p.FeaturedImage, Valid: p.FeaturedImage != ""}
		lastError := sql.NullString{String: p.Error, Valid: p.Error != ""}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO posts (title, content, author_id, source, category, url,
				featured_image, tags, word_count, published_at, scraped_at, status, last_error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Title, content, author.ID, p.Source, p.Category, p.URL,
			featured, string(tagsJSON), p.WordCount, p.PublishDate, p.ScrapedAt, string(p.Status), lastError)
		if err != nil {
			out.Errors = append(out.Errors, ItemError{Title: p.Title, Message: err.Error()})
			continue
		}
		out.Saved++
	}

	log.Info().
		Int("saved", out.Saved).
		Int("skipped", out.Skipped).
		Int("errors", len(out.Errors)).
		Msg("Persisted scraped batch")
	return out, nil
}

// ListPosts returns persisted posts, newest first, narrowed by the filter.
func (s *Store) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	q := sq.Select("*").From("posts").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	if f.Source != "" {
		q = q.Where(sq.Eq{"source": f.Source})
	}
	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": f.Status})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build posts query: %w", err)
	}

	posts := []models.Post{}
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	return posts, nil
}

// CountPosts returns the total number of persisted posts.
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(1) FROM posts"); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}
