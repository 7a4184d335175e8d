package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"thinkink/ingest/internal/run"
)

// Scheduler fires scraping runs on a cron schedule. At most one job is active
// per process: starting an already-started scheduler is a no-op, and stopping
// only cancels future firings; a run already in flight is not interrupted.
type Scheduler struct {
	cron   *cron.Cron
	runner *run.Runner
	params run.Params

	mu      sync.Mutex
	started bool
}

// New registers the scraping job under the given cron spec (UTC).
func New(spec string, runner *run.Runner, params run.Params) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	params.Trigger = run.TriggerScheduled

	s := &Scheduler{
		cron:   c,
		runner: runner,
		params: params,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing on schedule. Calling Start on a started scheduler does
// nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		log.Warn().Msg("Scheduler already started, ignoring")
		return
	}
	s.started = true
	s.cron.Start()
	log.Info().Msg("Scheduler started")
}

// Stop cancels future firings. It does not wait for an in-flight run.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.cron.Stop()
	log.Info().Msg("Scheduler stopped")
}

// Started reports whether the scheduler is currently registered to fire.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// runOnce executes one scheduled run. Failures are logged and never propagate,
// so the next tick always fires.
func (s *Scheduler) runOnce() {
	log.Info().Msg("Scheduled scraping run starting")

	result, err := s.runner.Run(context.Background(), s.params)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled scraping run failed")
		return
	}

	log.Info().
		Int("items", result.Summary.Total).
		Int("successful", result.Summary.Successful).
		Msg("Scheduled scraping run finished")
}
