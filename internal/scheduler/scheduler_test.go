package scheduler

import (
	"testing"

	"thinkink/ingest/internal/run"
	"thinkink/ingest/internal/scraper"
	"thinkink/ingest/internal/snapshot"
	"thinkink/ingest/internal/sources"
)

func newTestScheduler(t *testing.T, spec string) (*Scheduler, error) {
	t.Helper()
	registry := sources.NewRegistry([]sources.Source{
		{Name: "Test", FeedURL: "http://127.0.0.1:0/feed", Category: "tech"},
	})
	runner := run.NewRunner(registry, scraper.New(scraper.Options{}), snapshot.NewStore(t.TempDir()), nil)
	return New(spec, runner, run.Params{Limit: 15, SaveToDB: false})
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	if _, err := newTestScheduler(t, "not a cron spec"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestNewAcceptsDefaultSpec(t *testing.T) {
	if _, err := newTestScheduler(t, "0 0 */6 * *"); err != nil {
		t.Fatalf("default schedule rejected: %v", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	s, err := newTestScheduler(t, "@daily")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if s.Started() {
		t.Fatal("scheduler must not start on its own")
	}

	s.Start()
	if !s.Started() {
		t.Fatal("expected started after Start")
	}

	// A second Start is a no-op and must not panic or double-start.
	s.Start()
	if !s.Started() {
		t.Fatal("expected still started after repeated Start")
	}

	s.Stop()
	if s.Started() {
		t.Fatal("expected stopped after Stop")
	}

	// Stop on a stopped scheduler is also a no-op.
	s.Stop()
	if s.Started() {
		t.Fatal("expected still stopped after repeated Stop")
	}
}
