package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tickbook/tickbook/internal/logger"
)

// Scheduler re-runs the checker on a fixed interval. The per-day marker
// makes repeated runs within one date idempotent, so the interval only
// controls notification latency.
type Scheduler struct {
	checker  *Checker
	interval time.Duration
	log      zerolog.Logger
}

// NewScheduler wraps a checker in an interval loop.
func NewScheduler(checker *Checker, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		checker:  checker,
		interval: interval,
		log:      logger.With("notify-scheduler"),
	}
}

// Run blocks until ctx is cancelled, running the check immediately and
// then on every tick. Check failures are logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("notification scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.check(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("notification scheduler stopping")
			s.checker.Wait()
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	if err := s.checker.RunOnce(ctx); err != nil {
		s.log.Error().Err(err).Msg("notification check failed")
	}
}
