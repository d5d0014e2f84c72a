package store

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tickbook/tickbook/internal/model"
)

// CreateUser inserts a user and fills in its id. Email is stored
// lowercased.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Truncate(time.Second)
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	query := s.rebind(`
		INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	return s.db.QueryRowxContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
}

// GetUserByID returns a user by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	query := s.rebind(`SELECT * FROM users WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &u, query, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by lowercased email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	query := s.rebind(`SELECT * FROM users WHERE email = ?`)
	if err := sqlx.GetContext(ctx, s.db, &u, query, strings.ToLower(email)); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CreateSession inserts a session token.
func (s *Store) CreateSession(ctx context.Context, sess *model.Session) error {
	sess.CreatedAt = time.Now().UTC().Truncate(time.Second)
	query := s.rebind(`
		INSERT INTO sessions (user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`)
	return s.db.QueryRowxContext(ctx, query,
		sess.UserID, sess.Token, sess.ExpiresAt, sess.CreatedAt,
	).Scan(&sess.ID)
}

// GetSessionByToken returns the session for a bearer token.
func (s *Store) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	var sess model.Session
	query := s.rebind(`SELECT * FROM sessions WHERE token = ?`)
	if err := sqlx.GetContext(ctx, s.db, &sess, query, token); err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

// DeleteSession removes a session token.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	query := s.rebind(`DELETE FROM sessions WHERE token = ?`)
	_, err := s.db.ExecContext(ctx, query, token)
	return err
}
