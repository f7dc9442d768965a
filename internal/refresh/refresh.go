// Package refresh reloads the calendar page from its provider on a cron
// schedule.
package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "plancal/internal/log"
)

// Off disables periodic refresh.
const Off = "off"

// DefaultTimeout bounds a single refresh run.
const DefaultTimeout = 2 * time.Minute

// Refresher is what the scheduler drives; *planner.Page satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs Refresh on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	target  Refresher
	spec    string
	timeout time.Duration
	cron    *cron.Cron

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	runs   int
}

// New parses spec (standard five-field cron or a descriptor such as
// "@every 15m") in loc. An empty spec or "off" yields a disabled scheduler.
func New(spec string, target Refresher, loc *time.Location) (*Scheduler, error) {
	if target == nil {
		return nil, fmt.Errorf("refresh: nil target")
	}
	s := &Scheduler{target: target, spec: strings.TrimSpace(spec), timeout: DefaultTimeout}
	if s.spec == "" || strings.EqualFold(s.spec, Off) {
		s.spec = Off
		return s, nil
	}
	if loc == nil {
		loc = time.Local
	}

	if _, err := cron.ParseStandard(s.spec); err != nil {
		return nil, fmt.Errorf("refresh: invalid schedule %q: %w", s.spec, err)
	}
	logger := cronLogger{}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return nil, fmt.Errorf("refresh: schedule %q: %w", s.spec, err)
	}
	return s, nil
}

// Enabled reports whether a schedule is active.
func (s *Scheduler) Enabled() bool { return s.cron != nil }

func (s *Scheduler) Spec() string { return s.spec }

// Next returns the next planned run, or the zero time when disabled or not
// started.
func (s *Scheduler) Next() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start begins the schedule. Runs inherit ctx; cancelling it aborts an
// in-flight refresh but does not stop the schedule, use Stop for that.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.cron == nil {
		appLog.Info("periodic refresh disabled")
		return
	}
	s.cron.Start()
	appLog.Info("periodic refresh scheduled", "spec", s.spec, "next", s.Next())
}

// Stop halts the schedule, cancels any running refresh and waits for it to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce refreshes immediately, outside the schedule.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	err := s.target.Refresh(ctx)

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	if err != nil {
		return err
	}
	appLog.Debug("refresh finished", "took", time.Since(started))
	return nil
}

// Runs counts completed refreshes, scheduled or not.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.RunOnce(ctx); err != nil {
		// Page records the failure in its status; the schedule keeps going.
		appLog.Warn("scheduled refresh failed", "err", err)
	}
}

// cronLogger routes cron's own messages into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
