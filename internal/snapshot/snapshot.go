package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"thinkink/ingest/internal/scraper"
)

// Store writes run batches to timestamped JSON files for auditing. Filenames
// embed the run's unix-millisecond timestamp; collisions are accepted as
// out of scope.
type Store struct {
	dir string
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Write persists a batch under "<prefix>_<unix-ms>.json" and returns the path.
func (s *Store) Write(prefix string, posts []scraper.ScrapedPost) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("%s_%d.json", prefix, time.Now().UnixMilli())
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return path, nil
}
