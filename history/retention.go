package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionPolicy controls scheduled pruning. An empty Schedule or a
// non-positive RetentionDays disables it.
type RetentionPolicy struct {
	// RetentionDays is how long records are kept.
	RetentionDays int

	// Schedule is a cron expression, e.g. "0 3 * * *" for daily at 3 AM.
	Schedule string
}

func (p RetentionPolicy) enabled() bool {
	return p.Schedule != "" && p.RetentionDays > 0
}

// Scheduler prunes a Store on a cron schedule.
type Scheduler struct {
	store  *Store
	policy RetentionPolicy
	cron   *cron.Cron
	log    *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler over store. A nil logger falls back to
// slog.Default().
func NewScheduler(store *Store, policy RetentionPolicy, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:  store,
		policy: policy,
		cron:   cron.New(),
		log:    log.With("component", "retention"),
	}
}

// Start begins scheduled pruning. When the policy is disabled Start logs
// and returns nil. The scheduler stops itself when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.policy.enabled() {
		s.log.Debug("retention disabled",
			"schedule", s.policy.Schedule,
			"retention_days", s.policy.RetentionDays,
		)
		return nil
	}

	if _, err := cron.ParseStandard(s.policy.Schedule); err != nil {
		return fmt.Errorf("history: invalid prune schedule %q: %w", s.policy.Schedule, err)
	}

	_, err := s.cron.AddFunc(s.policy.Schedule, func() {
		s.prune(ctx)
	})
	if err != nil {
		return fmt.Errorf("history: scheduling prune: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.log.Info("retention scheduler started",
		"schedule", s.policy.Schedule,
		"retention_days", s.policy.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// prune runs one pruning cycle against the policy's cutoff.
func (s *Scheduler) prune(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.policy.RetentionDays)

	deleted, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		s.log.Error("scheduled prune failed", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Info("scheduled prune completed", "deleted", deleted, "cutoff", cutoff)
	} else {
		s.log.Debug("scheduled prune completed, nothing to delete")
	}
}

// Stop halts the schedule and waits for a running prune to finish. Safe to
// call when the scheduler never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("retention scheduler stopped")
}
