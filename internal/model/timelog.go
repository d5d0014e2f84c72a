package model

import "time"

// Time log tags.
const (
	TagBillable    = "billable"
	TagNonBillable = "non-billable"
)

// TimeLog is one interval of work on a project. A nil EndTime means the
// timer is still running; Hours is derived from the interval and is nil
// while running. ClientID is copied from the project at creation time
// and never re-synced.
type TimeLog struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	ProjectID   int64      `json:"project_id" db:"project_id"`
	ClientID    int64      `json:"client_id" db:"client_id"`
	StartTime   time.Time  `json:"start_time" db:"start_time"`
	EndTime     *time.Time `json:"end_time" db:"end_time"`
	Description string     `json:"description" db:"description"`
	Hours       *float64   `json:"hours" db:"hours"`
	Tag         *string    `json:"tag" db:"tag"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Running reports whether the log is an open interval.
func (t *TimeLog) Running() bool {
	return t.EndTime == nil
}

// ValidTag reports whether s is a known time log tag.
func ValidTag(s string) bool {
	return s == TagBillable || s == TagNonBillable
}
