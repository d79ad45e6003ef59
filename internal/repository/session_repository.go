package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// SessionRepository handles persistence for sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindAll returns every session.
func (r *SessionRepository) FindAll(ctx context.Context) ([]models.Session, error) {
	const query = `SELECT id, group_id, day, time, rhythm, duration, tentative FROM sessions ORDER BY id`
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Save upserts the session row.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	if session.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO sessions (group_id, day, time, rhythm, duration, tentative) VALUES (?, ?, ?, ?, ?, ?)`,
			session.GroupID, session.Day, session.Time, session.Rhythm, session.Duration, session.Tentative)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		session.ID = int(id)
		return nil
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET group_id = ?, day = ?, time = ?, rhythm = ?, duration = ?, tentative = ? WHERE id = ?`,
		session.GroupID, session.Day, session.Time, session.Rhythm, session.Duration, session.Tentative, session.ID); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes the session row.
func (r *SessionRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
