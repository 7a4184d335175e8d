package sources

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoSources indicates a source filter resolved to an empty set. Callers must
// treat this as a configuration error and abort before any network activity.
var ErrNoSources = errors.New("no matching sources configured")

// Source is a configured feed origin. Registry entries are fixed configuration
// data and are never mutated at runtime.
type Source struct {
	Name     string `yaml:"name" json:"name"`
	FeedURL  string `yaml:"feed_url" json:"feed_url"`
	Category string `yaml:"category" json:"category"`
}

// Registry holds the ordered list of configured sources.
type Registry struct {
	sources []Source
}

// NewRegistry builds a registry from an explicit source list.
func NewRegistry(srcs []Source) *Registry {
	out := make([]Source, len(srcs))
	copy(out, srcs)
	return &Registry{sources: out}
}

// Default returns a registry with the built-in source list.
func Default() *Registry {
	return &Registry{sources: []Source{
		{Name: "TechCrunch", FeedURL: "https://techcrunch.com/feed/", Category: "technology"},
		{Name: "Medium Tech", FeedURL: "https://medium.com/feed/topic/technology", Category: "technology"},
		{Name: "Dev.to", FeedURL: "https://dev.to/feed", Category: "programming"},
		{Name: "HackerNews", FeedURL: "https://hnrss.org/frontpage", Category: "technology"},
		{Name: "Mashable", FeedURL: "https://feeds.feedburner.com/Mashable", Category: "gaming"},
		{Name: "Wired", FeedURL: "https://www.wired.com/feed/rss", Category: "sports"},
	}}
}

// Load reads a registry from a YAML file. A missing file falls back to the
// built-in defaults; a malformed one is an error.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var cfg struct {
		Sources []Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	for i, s := range cfg.Sources {
		if s.Name == "" || s.FeedURL == "" {
			return nil, fmt.Errorf("source %d in %s is missing a name or feed_url", i, path)
		}
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	return &Registry{sources: cfg.Sources}, nil
}

// All returns the full configured list in stable order.
func (r *Registry) All() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Len returns the number of configured sources.
func (r *Registry) Len() int {
	return len(r.sources)
}

// Filter returns the subset of sources whose name appears in names, preserving
// registry order. The registry itself is left untouched; the returned slice is
// what a run operates on.
func (r *Registry) Filter(names []string) ([]Source, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	var out []Source
	for _, s := range r.sources {
		if _, ok := wanted[s.Name]; ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSources
	}
	return out, nil
}
