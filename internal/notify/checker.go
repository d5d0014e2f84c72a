// Package notify implements the daily over-threshold notification: a
// batch scan for users whose logged hours today reach the threshold,
// one email per user per calendar date.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tickbook/tickbook/internal/logger"
	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

// Checker runs the over-threshold scan. Idempotency comes from a
// day-scoped marker per (user, date); the check-then-set is not atomic,
// which is acceptable because the job runs serially.
type Checker struct {
	store     *store.Store
	clock     track.Clock
	mailer    Mailer
	threshold float64
	log       zerolog.Logger

	wg sync.WaitGroup
}

// NewChecker creates a checker. threshold is in hours.
func NewChecker(st *store.Store, clock track.Clock, mailer Mailer, threshold float64) *Checker {
	if clock == nil {
		clock = track.SystemClock{}
	}
	if threshold <= 0 {
		threshold = 8
	}
	return &Checker{
		store:     st,
		clock:     clock,
		mailer:    mailer,
		threshold: threshold,
		log:       logger.With("notify"),
	}
}

// RunOnce scans today's totals and notifies each user at most once per
// date. A bad record is logged and skipped; it never aborts the batch.
func (c *Checker) RunOnce(ctx context.Context) error {
	runID := uuid.New().String()[:8]
	log := c.log.With().Str("run_id", runID).Logger()

	now := c.clock.Now()
	dayStart, dayEnd := track.DayBounds(now)
	date := now.UTC().Format(track.DateFormat)

	totals, err := c.store.DailyUserTotals(ctx, dayStart, dayEnd, c.threshold)
	if err != nil {
		return fmt.Errorf("failed to scan daily totals: %w", err)
	}
	if len(totals) == 0 {
		log.Debug().Str("date", date).Msg("no users over threshold")
		return nil
	}

	for _, total := range totals {
		notified, err := c.store.WasNotified(ctx, total.UserID, date)
		if err != nil {
			log.Error().Err(err).Int64("user_id", total.UserID).Msg("marker lookup failed")
			continue
		}
		if notified {
			continue
		}

		user, err := c.store.GetUserByID(ctx, total.UserID)
		if err != nil {
			// Orphaned time logs must not take down the batch.
			log.Error().Err(err).Int64("user_id", total.UserID).Msg("user not found")
			continue
		}

		c.dispatch(log, user.Email, user.Name, total.TotalHours)

		if err := c.store.MarkNotified(ctx, total.UserID, date); err != nil {
			log.Error().Err(err).Int64("user_id", total.UserID).Msg("failed to record marker")
			continue
		}
		log.Info().Int64("user_id", total.UserID).Str("date", date).
			Float64("total_hours", total.TotalHours).Msg("user notified")
	}
	return nil
}

// dispatch sends the email asynchronously, fire and forget. Failures
// are logged, never retried.
func (c *Checker) dispatch(log zerolog.Logger, email, name string, hours float64) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		subject := "You have logged more than 8 hours today"
		body := fmt.Sprintf(
			"Hi %s,\n\nYou have logged %.2f hours today. Remember to take a break!\n",
			name, hours)
		if err := c.mailer.Send(context.Background(), email, subject, body); err != nil {
			log.Error().Err(err).Str("email", email).Msg("notification delivery failed")
		}
	}()
}

// Wait blocks until in-flight deliveries finish. Used on shutdown and
// in tests.
func (c *Checker) Wait() {
	c.wg.Wait()
}
