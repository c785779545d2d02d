// Package schedule runs periodic SDK maintenance jobs.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	robcron "github.com/robfig/cron/v3"
)

// Job is one periodic task. It reports whether it did any work.
type Job func() bool

// Resync runs a job on a cron schedule, for example re-sending the push
// token so a backend that lost it converges again.
type Resync struct {
	logger *slog.Logger
	cron   *robcron.Cron
	job    Job

	mu      sync.Mutex
	entryID robcron.EntryID
	started bool
	runs    int
}

// NewResync validates spec and returns a stopped scheduler. spec accepts the
// standard five-field syntax and descriptors such as "@every 30m".
func NewResync(log *slog.Logger, name, spec string, job Job) (*Resync, error) {
	if log == nil {
		log = slog.Default()
	}
	if job == nil {
		return nil, fmt.Errorf("schedule %s: job is required", name)
	}
	r := &Resync{
		logger: log.With(slog.String("component", "schedule"), slog.String("job", name)),
		cron:   robcron.New(),
		job:    job,
	}
	entryID, err := r.cron.AddFunc(spec, r.Run)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	r.entryID = entryID
	return r, nil
}

// Run executes the job once, outside the schedule.
func (r *Resync) Run() {
	did := r.job()
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
	r.logger.Debug("scheduled job ran", slog.Bool("did_work", did))
}

// Runs returns how often the job has run.
func (r *Resync) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// Start begins scheduling. Calling it twice has no effect.
func (r *Resync) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.cron.Start()
	if next := r.cron.Entry(r.entryID).Next; !next.IsZero() {
		r.logger.Info("schedule started", slog.Time("next_run", next))
	}
}

// Stop halts scheduling and waits for a running job until ctx ends.
func (r *Resync) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	r.mu.Unlock()

	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
