package store

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tickbook/tickbook/internal/model"
)

// CreateClient inserts a client and fills in its id.
func (s *Store) CreateClient(ctx context.Context, c *model.Client) error {
	now := time.Now().UTC().Truncate(time.Second)
	c.Email = strings.ToLower(c.Email)
	c.CreatedAt = now
	c.UpdatedAt = now

	query := s.rebind(`
		INSERT INTO clients (user_id, name, email, contact_person, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)
	return s.db.QueryRowxContext(ctx, query,
		c.UserID, c.Name, c.Email, c.ContactPerson, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

// GetClient returns a client owned by userID.
func (s *Store) GetClient(ctx context.Context, id, userID int64) (*model.Client, error) {
	var c model.Client
	query := s.rebind(`SELECT * FROM clients WHERE id = ? AND user_id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &c, query, id, userID); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListClients returns all clients owned by userID, newest first.
func (s *Store) ListClients(ctx context.Context, userID int64) ([]model.Client, error) {
	clients := []model.Client{}
	query := s.rebind(`SELECT * FROM clients WHERE user_id = ? ORDER BY id DESC`)
	if err := sqlx.SelectContext(ctx, s.db, &clients, query, userID); err != nil {
		return nil, err
	}
	return clients, nil
}

// UpdateClient saves changed fields of a client.
func (s *Store) UpdateClient(ctx context.Context, c *model.Client) error {
	c.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	query := s.rebind(`
		UPDATE clients SET name = ?, email = ?, contact_person = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, query,
		c.Name, c.Email, c.ContactPerson, c.UpdatedAt, c.ID, c.UserID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteClient removes a client owned by userID.
func (s *Store) DeleteClient(ctx context.Context, id, userID int64) error {
	query := s.rebind(`DELETE FROM clients WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClientEmailTaken reports whether another client of the same user
// already uses the email. excludeID skips the record being updated.
func (s *Store) ClientEmailTaken(ctx context.Context, userID int64, email string, excludeID int64) (bool, error) {
	var count int
	query := s.rebind(`
		SELECT COUNT(*) FROM clients
		WHERE user_id = ? AND email = ? AND id != ?`)
	if err := sqlx.GetContext(ctx, s.db, &count, query, userID, strings.ToLower(email), excludeID); err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountClientProjects returns how many projects reference the client.
func (s *Store) CountClientProjects(ctx context.Context, clientID int64) (int, error) {
	var count int
	query := s.rebind(`SELECT COUNT(*) FROM projects WHERE client_id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &count, query, clientID); err != nil {
		return 0, err
	}
	return count, nil
}
