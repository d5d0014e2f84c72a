package model

import "time"

// Client is a customer a user bills time against. Email is unique per
// owner and stored lowercased.
type Client struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	ContactPerson string    `json:"contact_person" db:"contact_person"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
