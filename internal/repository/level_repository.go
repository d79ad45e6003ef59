package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// LevelRepository handles persistence for levels, including the
// course_levels link to the owning course.
type LevelRepository struct {
	db *sqlx.DB
}

// NewLevelRepository creates a new repository instance.
func NewLevelRepository(db *sqlx.DB) *LevelRepository {
	return &LevelRepository{db: db}
}

// FindAll returns every level with its raw course key and module keys.
func (r *LevelRepository) FindAll(ctx context.Context) ([]models.Level, error) {
	const query = `SELECT id, art, name, tm, min, max, min_credit_points, max_credit_points, parent_id FROM levels ORDER BY id`
	var levels []models.Level
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}

	type courseRow struct {
		LevelID int    `db:"level_id"`
		Key     string `db:"course_key"`
	}
	var courseRows []courseRow
	if err := r.db.SelectContext(ctx, &courseRows,
		`SELECT cl.level_id AS level_id, c.course_key AS course_key FROM course_levels cl JOIN courses c ON c.id = cl.course_id`); err != nil {
		return nil, fmt.Errorf("list course_levels: %w", err)
	}
	courseByLevel := make(map[int]string, len(courseRows))
	for _, row := range courseRows {
		courseByLevel[row.LevelID] = row.Key
	}

	type moduleRow struct {
		LevelID int    `db:"level_id"`
		Key     string `db:"module_key"`
	}
	var moduleRows []moduleRow
	if err := r.db.SelectContext(ctx, &moduleRows,
		`SELECT ml.level_id AS level_id, m.module_key AS module_key FROM module_levels ml JOIN modules m ON m.id = ml.module_id WHERE ml.level_id IS NOT NULL`); err != nil {
		return nil, fmt.Errorf("list level modules: %w", err)
	}
	modulesByLevel := make(map[int][]string, len(moduleRows))
	for _, row := range moduleRows {
		modulesByLevel[row.LevelID] = append(modulesByLevel[row.LevelID], row.Key)
	}

	for i := range levels {
		if key, ok := courseByLevel[levels[i].ID]; ok {
			k := key
			levels[i].CourseKey = &k
		}
		levels[i].ModuleKeys = modulesByLevel[levels[i].ID]
	}
	return levels, nil
}

// Save upserts the level row and replaces its course_levels link.
func (r *LevelRepository) Save(ctx context.Context, level *models.Level) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save level: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if level.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO levels (art, name, tm, min, max, min_credit_points, max_credit_points, parent_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			level.Art, level.Name, level.Tm, level.Min, level.Max, level.MinCreditPoints, level.MaxCreditPoints, level.ParentID)
		if err != nil {
			return fmt.Errorf("insert level: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert level: %w", err)
		}
		level.ID = int(id)
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE levels SET art = ?, name = ?, tm = ?, min = ?, max = ?, min_credit_points = ?, max_credit_points = ?, parent_id = ? WHERE id = ?`,
			level.Art, level.Name, level.Tm, level.Min, level.Max, level.MinCreditPoints, level.MaxCreditPoints, level.ParentID, level.ID); err != nil {
			return fmt.Errorf("update level: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_levels WHERE level_id = ?`, level.ID); err != nil {
		return fmt.Errorf("clear course_levels: %w", err)
	}
	if level.CourseKey != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO course_levels (level_id, course_id) SELECT ?, id FROM courses WHERE course_key = ?`,
			level.ID, *level.CourseKey); err != nil {
			return fmt.Errorf("insert course_levels: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save level: commit: %w", err)
	}
	return nil
}

// Delete removes the level, detaching children instead of cascading.
func (r *LevelRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete level: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE levels SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
		return fmt.Errorf("detach level children: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM course_levels WHERE level_id = ?`, id); err != nil {
		return fmt.Errorf("delete course_levels: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM levels WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete level: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete level: commit: %w", err)
	}
	return nil
}
