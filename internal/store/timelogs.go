package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tickbook/tickbook/internal/model"
)

// TimeLogFilter narrows time log queries. StartDate and EndDate are
// calendar dates (midnight UTC); StartDate compares the date portion of
// start_time, EndDate the date portion of end_time, both inclusive.
type TimeLogFilter struct {
	ProjectID *int64
	ClientID  *int64
	StartDate *time.Time
	EndDate   *time.Time
}

func (f TimeLogFilter) where() (string, []any) {
	clause := ""
	args := []any{}
	if f.ProjectID != nil {
		clause += ` AND project_id = ?`
		args = append(args, *f.ProjectID)
	}
	if f.ClientID != nil {
		clause += ` AND client_id = ?`
		args = append(args, *f.ClientID)
	}
	if f.StartDate != nil {
		clause += ` AND start_time >= ?`
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		// date(end_time) <= EndDate, excluding running logs
		clause += ` AND end_time IS NOT NULL AND end_time < ?`
		args = append(args, f.EndDate.AddDate(0, 0, 1))
	}
	return clause, args
}

// CreateTimeLog inserts a time log and fills in its id. Pass the
// transaction that performed the overlap check.
func (s *Store) CreateTimeLog(ctx context.Context, tx *sqlx.Tx, t *model.TimeLog) error {
	now := time.Now().UTC().Truncate(time.Second)
	t.CreatedAt = now
	t.UpdatedAt = now

	query := s.rebind(`
		INSERT INTO time_logs (user_id, project_id, client_id, start_time, end_time, description, hours, tag, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	row := s.q(tx).QueryRowxContext(ctx, query,
		t.UserID, t.ProjectID, t.ClientID, t.StartTime, t.EndTime,
		t.Description, t.Hours, t.Tag, t.CreatedAt, t.UpdatedAt)
	return row.Scan(&t.ID)
}

// GetTimeLog returns a time log owned by userID.
func (s *Store) GetTimeLog(ctx context.Context, id, userID int64) (*model.TimeLog, error) {
	var t model.TimeLog
	query := s.rebind(`SELECT * FROM time_logs WHERE id = ? AND user_id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &t, query, id, userID); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListTimeLogs returns the user's time logs matching the filter,
// ordered by start_time descending.
func (s *Store) ListTimeLogs(ctx context.Context, userID int64, f TimeLogFilter) ([]model.TimeLog, error) {
	logs := []model.TimeLog{}
	clause, fargs := f.where()
	query := `SELECT * FROM time_logs WHERE user_id = ?` + clause + ` ORDER BY start_time DESC`
	args := append([]any{userID}, fargs...)
	if err := sqlx.SelectContext(ctx, s.db, &logs, s.rebind(query), args...); err != nil {
		return nil, err
	}
	return logs, nil
}

// UpdateTimeLog saves every mutable field of a time log. Pass the
// transaction that performed the overlap re-check.
func (s *Store) UpdateTimeLog(ctx context.Context, tx *sqlx.Tx, t *model.TimeLog) error {
	t.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	query := s.rebind(`
		UPDATE time_logs
		SET start_time = ?, end_time = ?, description = ?, hours = ?, tag = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)
	res, err := s.q(tx).ExecContext(ctx, query,
		t.StartTime, t.EndTime, t.Description, t.Hours, t.Tag, t.UpdatedAt,
		t.ID, t.UserID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTimeLog removes a time log owned by userID.
func (s *Store) DeleteTimeLog(ctx context.Context, id, userID int64) error {
	query := s.rebind(`DELETE FROM time_logs WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RunningTimeLog returns the user's open time log, if any.
func (s *Store) RunningTimeLog(ctx context.Context, tx *sqlx.Tx, userID int64) (*model.TimeLog, error) {
	var t model.TimeLog
	query := s.rebind(`
		SELECT * FROM time_logs
		WHERE user_id = ? AND end_time IS NULL
		LIMIT 1`)
	if err := sqlx.GetContext(ctx, s.q(tx), &t, query, userID); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// RunningTimeLogForProject returns the open time log on one project.
func (s *Store) RunningTimeLogForProject(ctx context.Context, tx *sqlx.Tx, userID, projectID int64) (*model.TimeLog, error) {
	var t model.TimeLog
	query := s.rebind(`
		SELECT * FROM time_logs
		WHERE user_id = ? AND project_id = ? AND end_time IS NULL
		LIMIT 1`)
	if err := sqlx.GetContext(ctx, s.q(tx), &t, query, userID, projectID); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// HasLaterStart reports whether any other time log of the user starts
// after the given instant.
func (s *Store) HasLaterStart(ctx context.Context, tx *sqlx.Tx, userID int64, after time.Time, excludeID int64) (bool, error) {
	var count int
	query := s.rebind(`
		SELECT COUNT(*) FROM time_logs
		WHERE user_id = ? AND id != ? AND start_time > ?`)
	if err := sqlx.GetContext(ctx, s.q(tx), &count, query, userID, excludeID, after); err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindOverlap returns a time log of the user whose interval overlaps
// the candidate [start, end), treating a nil end as unbounded on either
// side. Two intervals overlap when each starts before the other ends.
// excludeID skips the record being updated.
func (s *Store) FindOverlap(ctx context.Context, tx *sqlx.Tx, userID, excludeID int64, start time.Time, end *time.Time) (*model.TimeLog, error) {
	var t model.TimeLog
	query := `
		SELECT * FROM time_logs
		WHERE user_id = ? AND id != ?
		  AND (end_time IS NULL OR end_time > ?)`
	args := []any{userID, excludeID, start}
	if end != nil {
		// an unbounded candidate end never constrains the check
		query += ` AND start_time < ?`
		args = append(args, *end)
	}
	query += ` LIMIT 1`
	if err := sqlx.GetContext(ctx, s.q(tx), &t, s.rebind(query), args...); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// SumHours totals the derived hours of the user's matching time logs.
// Running logs carry NULL hours and drop out of the sum.
func (s *Store) SumHours(ctx context.Context, userID int64, f TimeLogFilter) (float64, error) {
	var total float64
	clause, fargs := f.where()
	query := `SELECT COALESCE(SUM(hours), 0) FROM time_logs WHERE user_id = ?` + clause
	args := append([]any{userID}, fargs...)
	if err := sqlx.GetContext(ctx, s.db, &total, s.rebind(query), args...); err != nil {
		return 0, err
	}
	return total, nil
}

// LatestTimeLog returns the most recently started matching time log.
func (s *Store) LatestTimeLog(ctx context.Context, userID int64, f TimeLogFilter) (*model.TimeLog, error) {
	var t model.TimeLog
	clause, fargs := f.where()
	query := `SELECT * FROM time_logs WHERE user_id = ?` + clause + ` ORDER BY start_time DESC LIMIT 1`
	args := append([]any{userID}, fargs...)
	if err := sqlx.GetContext(ctx, s.db, &t, s.rebind(query), args...); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// CompletedTimeLogs returns the user's closed time logs with start_time
// inside [from, to], ordered by start_time descending. Nil bounds are
// open.
func (s *Store) CompletedTimeLogs(ctx context.Context, userID int64, from, to *time.Time) ([]model.TimeLog, error) {
	logs := []model.TimeLog{}
	query := `SELECT * FROM time_logs WHERE user_id = ? AND end_time IS NOT NULL`
	args := []any{userID}
	if from != nil {
		query += ` AND start_time >= ?`
		args = append(args, *from)
	}
	if to != nil {
		query += ` AND start_time <= ?`
		args = append(args, *to)
	}
	query += ` ORDER BY start_time DESC`
	if err := sqlx.SelectContext(ctx, s.db, &logs, s.rebind(query), args...); err != nil {
		return nil, err
	}
	return logs, nil
}

// UserDayTotal is one user's summed hours for a calendar date.
type UserDayTotal struct {
	UserID     int64   `db:"user_id"`
	TotalHours float64 `db:"total_hours"`
}

// DailyUserTotals returns, across all users, the summed hours of time
// logs starting inside [dayStart, dayEnd) that reach the threshold.
func (s *Store) DailyUserTotals(ctx context.Context, dayStart, dayEnd time.Time, threshold float64) ([]UserDayTotal, error) {
	totals := []UserDayTotal{}
	query := s.rebind(`
		SELECT user_id, COALESCE(SUM(hours), 0) AS total_hours
		FROM time_logs
		WHERE start_time >= ? AND start_time < ?
		GROUP BY user_id
		HAVING COALESCE(SUM(hours), 0) >= ?`)
	if err := sqlx.SelectContext(ctx, s.db, &totals, query, dayStart, dayEnd, threshold); err != nil {
		return nil, err
	}
	return totals, nil
}
