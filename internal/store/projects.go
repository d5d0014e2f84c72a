package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tickbook/tickbook/internal/model"
)

// CreateProject inserts a project and fills in its id.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now

	query := s.rebind(`
		INSERT INTO projects (user_id, client_id, title, description, status, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	return s.db.QueryRowxContext(ctx, query,
		p.UserID, p.ClientID, p.Title, p.Description, p.Status, p.Deadline,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

// GetProject returns a project owned by userID.
func (s *Store) GetProject(ctx context.Context, id, userID int64) (*model.Project, error) {
	var p model.Project
	query := s.rebind(`SELECT * FROM projects WHERE id = ? AND user_id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &p, query, id, userID); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListProjects returns projects owned by userID, optionally filtered by
// client.
func (s *Store) ListProjects(ctx context.Context, userID int64, clientID *int64) ([]model.Project, error) {
	projects := []model.Project{}
	query := `SELECT * FROM projects WHERE user_id = ?`
	args := []any{userID}
	if clientID != nil {
		query += ` AND client_id = ?`
		args = append(args, *clientID)
	}
	query += ` ORDER BY id DESC`
	if err := sqlx.SelectContext(ctx, s.db, &projects, s.rebind(query), args...); err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject saves changed fields of a project.
func (s *Store) UpdateProject(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	query := s.rebind(`
		UPDATE projects
		SET client_id = ?, title = ?, description = ?, status = ?, deadline = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)
	res, err := s.db.ExecContext(ctx, query,
		p.ClientID, p.Title, p.Description, p.Status, p.Deadline, p.UpdatedAt,
		p.ID, p.UserID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProjectCascade removes a project and all of its time logs in
// one transaction. Partial deletion is never visible.
func (s *Store) DeleteProjectCascade(ctx context.Context, id, userID int64) error {
	return s.InTx(ctx, func(tx *sqlx.Tx) error {
		del := s.rebind(`DELETE FROM time_logs WHERE project_id = ? AND user_id = ?`)
		if _, err := tx.ExecContext(ctx, del, id, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			s.rebind(`DELETE FROM projects WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
