package model

import "time"

// Project statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Project belongs to a user and one of that user's clients.
type Project struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	ClientID    int64      `json:"client_id" db:"client_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	Deadline    *time.Time `json:"deadline" db:"deadline"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// ValidStatus reports whether s is a known project status.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusCompleted
}
