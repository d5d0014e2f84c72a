package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// WasNotified reports whether the user already has a marker for the
// calendar date (YYYY-MM-DD).
func (s *Store) WasNotified(ctx context.Context, userID int64, date string) (bool, error) {
	var count int
	query := s.rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND notified_on = ?`)
	if err := sqlx.GetContext(ctx, s.db, &count, query, userID, date); err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkNotified records the day-scoped idempotency marker.
func (s *Store) MarkNotified(ctx context.Context, userID int64, date string) error {
	query := s.rebind(`
		INSERT INTO notifications (user_id, notified_on, created_at)
		VALUES (?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, userID, date, time.Now().UTC().Truncate(time.Second))
	return err
}
