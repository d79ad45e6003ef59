package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// GroupRepository handles persistence for groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new repository instance.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// FindAll returns every group with its raw unit key and session ids.
func (r *GroupRepository) FindAll(ctx context.Context) ([]models.Group, error) {
	const query = `SELECT g.id AS id, u.unit_key AS unit_key, g.half_semester AS half_semester
FROM groups g
LEFT JOIN units u ON u.id = g.unit_id
ORDER BY g.id`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	type sessionRow struct {
		GroupID   int `db:"group_id"`
		SessionID int `db:"id"`
	}
	var sessionRows []sessionRow
	if err := r.db.SelectContext(ctx, &sessionRows,
		`SELECT group_id, id FROM sessions WHERE group_id IS NOT NULL`); err != nil {
		return nil, fmt.Errorf("list group sessions: %w", err)
	}
	sessionsByGroup := make(map[int][]int, len(sessionRows))
	for _, row := range sessionRows {
		sessionsByGroup[row.GroupID] = append(sessionsByGroup[row.GroupID], row.SessionID)
	}

	for i := range groups {
		groups[i].SessionIDs = sessionsByGroup[groups[i].ID]
	}
	return groups, nil
}

// Save upserts the group row, resolving the unit key to its row id.
func (r *GroupRepository) Save(ctx context.Context, group *models.Group) error {
	if group.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO groups (unit_id, half_semester) VALUES ((SELECT id FROM units WHERE unit_key = ?), ?)`,
			group.UnitKey, group.HalfSemester)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		group.ID = int(id)
		return nil
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE groups SET unit_id = (SELECT id FROM units WHERE unit_key = ?), half_semester = ? WHERE id = ?`,
		group.UnitKey, group.HalfSemester, group.ID); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete removes the group, detaching its sessions.
func (r *GroupRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete group: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET group_id = NULL WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("detach group sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete group: commit: %w", err)
	}
	return nil
}
