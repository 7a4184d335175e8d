package models

import (
	"database/sql"
	"time"
)

// Post represents a row in the 'posts' table
type Post struct {
	ID            int64          `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Content       string         `db:"content" json:"content"`
	AuthorID      int64          `db:"author_id" json:"author_id"`
	Source        string         `db:"source" json:"source"`
	Category      string         `db:"category" json:"category"`
	URL           string         `db:"url" json:"url"`
	FeaturedImage sql.NullString `db:"featured_image" json:"featured_image"`
	Tags          []byte         `db:"tags" json:"-"` // JSON array of tag strings
	WordCount     int            `db:"word_count" json:"word_count"`
	PublishedAt   sql.NullTime   `db:"published_at" json:"published_at"`
	ScrapedAt     sql.NullTime   `db:"scraped_at" json:"scraped_at"`
	Status        string         `db:"status" json:"status"`
	LastError     sql.NullString `db:"last_error" json:"last_error,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// NewPost creates a new Post with default values
func NewPost() *Post {
	now := time.Now()
	return &Post{
		Status:    "scraped",
		Tags:      []byte("[]"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
