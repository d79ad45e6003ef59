package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// ModuleRepository handles persistence for modules and the join rows they
// own (module_abstract_units, course_modules).
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository creates a new repository instance.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// FindAll returns every module with its raw abstract-unit and course keys.
func (r *ModuleRepository) FindAll(ctx context.Context) ([]models.Module, error) {
	const query = `SELECT id, module_key, title, pordnr, bundled, elective_units FROM modules ORDER BY id`
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}

	abstractUnits, err := joinKeys(ctx, r.db,
		`SELECT mau.module_id AS owner_id, au.unit_key AS rel_key FROM module_abstract_units mau JOIN abstract_units au ON au.id = mau.abstract_unit_id`,
		"module_abstract_units")
	if err != nil {
		return nil, err
	}
	courses, err := joinKeys(ctx, r.db,
		`SELECT cm.module_id AS owner_id, c.course_key AS rel_key FROM course_modules cm JOIN courses c ON c.id = cm.course_id`,
		"course_modules")
	if err != nil {
		return nil, err
	}

	for i := range modules {
		modules[i].AbstractUnitKeys = abstractUnits[modules[i].ID]
		modules[i].CourseKeys = courses[modules[i].ID]
	}
	return modules, nil
}

type joinRow struct {
	OwnerID int    `db:"owner_id"`
	Key     string `db:"rel_key"`
}

// joinKeys collects owner-id -> related-key lists for a join-table query.
func joinKeys(ctx context.Context, db *sqlx.DB, query, table string) (map[int][]string, error) {
	var rows []joinRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	keys := make(map[int][]string, len(rows))
	for _, row := range rows {
		keys[row.OwnerID] = append(keys[row.OwnerID], row.Key)
	}
	return keys, nil
}

// Save upserts the module row and replaces its owned join rows.
func (r *ModuleRepository) Save(ctx context.Context, module *models.Module) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save module: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if module.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO modules (module_key, title, pordnr, bundled, elective_units) VALUES (?, ?, ?, ?, ?)`,
			module.Key, module.Title, module.Pordnr, module.Bundled, module.ElectiveUnits)
		if err != nil {
			return fmt.Errorf("insert module: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert module: %w", err)
		}
		module.ID = int(id)
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE modules SET module_key = ?, title = ?, pordnr = ?, bundled = ?, elective_units = ? WHERE id = ?`,
			module.Key, module.Title, module.Pordnr, module.Bundled, module.ElectiveUnits, module.ID); err != nil {
			return fmt.Errorf("update module: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM module_abstract_units WHERE module_id = ?`, module.ID); err != nil {
		return fmt.Errorf("clear module_abstract_units: %w", err)
	}
	for _, key := range module.AbstractUnitKeys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO module_abstract_units (module_id, abstract_unit_id) SELECT ?, id FROM abstract_units WHERE unit_key = ?`,
			module.ID, key); err != nil {
			return fmt.Errorf("insert module_abstract_units: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_modules WHERE module_id = ?`, module.ID); err != nil {
		return fmt.Errorf("clear course_modules: %w", err)
	}
	for _, key := range module.CourseKeys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO course_modules (course_id, module_id) SELECT id, ? FROM courses WHERE course_key = ?`,
			module.ID, key); err != nil {
			return fmt.Errorf("insert course_modules: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save module: commit: %w", err)
	}
	return nil
}

// Delete removes the module and its owned join rows.
func (r *ModuleRepository) Delete(ctx context.Context, key string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete module: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		`DELETE FROM module_abstract_units WHERE module_id IN (SELECT id FROM modules WHERE module_key = ?)`,
		`DELETE FROM course_modules WHERE module_id IN (SELECT id FROM modules WHERE module_key = ?)`,
		`DELETE FROM module_levels WHERE module_id IN (SELECT id FROM modules WHERE module_key = ?)`,
		`DELETE FROM modules WHERE module_key = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
			return fmt.Errorf("delete module: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete module: commit: %w", err)
	}
	return nil
}
