package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// AbstractUnitRepository handles persistence for abstract units. The join
// rows to modules and units are owned by the module and unit repositories;
// FindAll reads them only to populate the raw inverse key lists.
type AbstractUnitRepository struct {
	db *sqlx.DB
}

// NewAbstractUnitRepository creates a new repository instance.
func NewAbstractUnitRepository(db *sqlx.DB) *AbstractUnitRepository {
	return &AbstractUnitRepository{db: db}
}

// FindAll returns every abstract unit with its raw module and unit keys.
func (r *AbstractUnitRepository) FindAll(ctx context.Context) ([]models.AbstractUnit, error) {
	const query = `SELECT id, unit_key, title FROM abstract_units ORDER BY id`
	var abstractUnits []models.AbstractUnit
	if err := r.db.SelectContext(ctx, &abstractUnits, query); err != nil {
		return nil, fmt.Errorf("list abstract_units: %w", err)
	}

	modules, err := joinKeys(ctx, r.db,
		`SELECT mau.abstract_unit_id AS owner_id, m.module_key AS rel_key FROM module_abstract_units mau JOIN modules m ON m.id = mau.module_id`,
		"module_abstract_units")
	if err != nil {
		return nil, err
	}
	units, err := joinKeys(ctx, r.db,
		`SELECT uau.abstract_unit_id AS owner_id, u.unit_key AS rel_key FROM unit_abstract_units uau JOIN units u ON u.id = uau.unit_id`,
		"unit_abstract_units")
	if err != nil {
		return nil, err
	}

	for i := range abstractUnits {
		abstractUnits[i].ModuleKeys = modules[abstractUnits[i].ID]
		abstractUnits[i].UnitKeys = units[abstractUnits[i].ID]
	}
	return abstractUnits, nil
}

// Save upserts the abstract_units row.
func (r *AbstractUnitRepository) Save(ctx context.Context, abstractUnit *models.AbstractUnit) error {
	if abstractUnit.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO abstract_units (unit_key, title) VALUES (?, ?)`,
			abstractUnit.Key, abstractUnit.Title)
		if err != nil {
			return fmt.Errorf("insert abstract_unit: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert abstract_unit: %w", err)
		}
		abstractUnit.ID = int(id)
		return nil
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE abstract_units SET unit_key = ?, title = ? WHERE id = ?`,
		abstractUnit.Key, abstractUnit.Title, abstractUnit.ID); err != nil {
		return fmt.Errorf("update abstract_unit: %w", err)
	}
	return nil
}

// Delete removes the abstract unit and any join rows pointing at it.
func (r *AbstractUnitRepository) Delete(ctx context.Context, key string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete abstract_unit: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		`DELETE FROM module_abstract_units WHERE abstract_unit_id IN (SELECT id FROM abstract_units WHERE unit_key = ?)`,
		`DELETE FROM unit_abstract_units WHERE abstract_unit_id IN (SELECT id FROM abstract_units WHERE unit_key = ?)`,
		`DELETE FROM abstract_units WHERE unit_key = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
			return fmt.Errorf("delete abstract_unit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete abstract_unit: commit: %w", err)
	}
	return nil
}
