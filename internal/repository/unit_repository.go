package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// UnitRepository handles persistence for units and the unit_abstract_units
// join rows they own.
type UnitRepository struct {
	db *sqlx.DB
}

// NewUnitRepository creates a new repository instance.
func NewUnitRepository(db *sqlx.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// FindAll returns every unit with its raw abstract-unit keys and group ids.
func (r *UnitRepository) FindAll(ctx context.Context) ([]models.Unit, error) {
	const query = `SELECT id, unit_key, title FROM units ORDER BY id`
	var units []models.Unit
	if err := r.db.SelectContext(ctx, &units, query); err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	abstractUnits, err := joinKeys(ctx, r.db,
		`SELECT uau.unit_id AS owner_id, au.unit_key AS rel_key FROM unit_abstract_units uau JOIN abstract_units au ON au.id = uau.abstract_unit_id`,
		"unit_abstract_units")
	if err != nil {
		return nil, err
	}

	type groupRow struct {
		UnitID  int `db:"unit_id"`
		GroupID int `db:"id"`
	}
	var groupRows []groupRow
	if err := r.db.SelectContext(ctx, &groupRows,
		`SELECT unit_id, id FROM groups WHERE unit_id IS NOT NULL`); err != nil {
		return nil, fmt.Errorf("list unit groups: %w", err)
	}
	groupsByUnit := make(map[int][]int, len(groupRows))
	for _, row := range groupRows {
		groupsByUnit[row.UnitID] = append(groupsByUnit[row.UnitID], row.GroupID)
	}

	for i := range units {
		units[i].AbstractUnitKeys = abstractUnits[units[i].ID]
		units[i].GroupIDs = groupsByUnit[units[i].ID]
	}
	return units, nil
}

// Save upserts the unit row and replaces its unit_abstract_units rows.
func (r *UnitRepository) Save(ctx context.Context, unit *models.Unit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save unit: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if unit.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO units (unit_key, title) VALUES (?, ?)`, unit.Key, unit.Title)
		if err != nil {
			return fmt.Errorf("insert unit: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert unit: %w", err)
		}
		unit.ID = int(id)
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE units SET unit_key = ?, title = ? WHERE id = ?`,
			unit.Key, unit.Title, unit.ID); err != nil {
			return fmt.Errorf("update unit: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM unit_abstract_units WHERE unit_id = ?`, unit.ID); err != nil {
		return fmt.Errorf("clear unit_abstract_units: %w", err)
	}
	for _, key := range unit.AbstractUnitKeys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO unit_abstract_units (unit_id, abstract_unit_id) SELECT ?, id FROM abstract_units WHERE unit_key = ?`,
			unit.ID, key); err != nil {
			return fmt.Errorf("insert unit_abstract_units: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save unit: commit: %w", err)
	}
	return nil
}

// Delete removes the unit, detaching its groups.
func (r *UnitRepository) Delete(ctx context.Context, key string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete unit: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		`UPDATE groups SET unit_id = NULL WHERE unit_id IN (SELECT id FROM units WHERE unit_key = ?)`,
		`DELETE FROM unit_abstract_units WHERE unit_id IN (SELECT id FROM units WHERE unit_key = ?)`,
		`DELETE FROM units WHERE unit_key = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
			return fmt.Errorf("delete unit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete unit: commit: %w", err)
	}
	return nil
}
