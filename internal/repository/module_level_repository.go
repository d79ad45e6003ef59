package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// ModuleLevelRepository handles persistence for module_levels link rows.
type ModuleLevelRepository struct {
	db *sqlx.DB
}

// NewModuleLevelRepository creates a new repository instance.
func NewModuleLevelRepository(db *sqlx.DB) *ModuleLevelRepository {
	return &ModuleLevelRepository{db: db}
}

// FindAll returns every link row with its references resolved to keys.
func (r *ModuleLevelRepository) FindAll(ctx context.Context) ([]models.ModuleLevel, error) {
	const query = `SELECT ml.id AS id, c.course_key AS course_key, m.module_key AS module_key, ml.level_id AS level_id
FROM module_levels ml
LEFT JOIN courses c ON c.id = ml.course_id
LEFT JOIN modules m ON m.id = ml.module_id
ORDER BY ml.id`
	var links []models.ModuleLevel
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("list module_levels: %w", err)
	}
	return links, nil
}

// Save upserts the link row, resolving keys back to row ids. Unresolvable
// keys store NULL.
func (r *ModuleLevelRepository) Save(ctx context.Context, link *models.ModuleLevel) error {
	if link.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO module_levels (course_id, module_id, level_id) VALUES ((SELECT id FROM courses WHERE course_key = ?), (SELECT id FROM modules WHERE module_key = ?), ?)`,
			link.CourseKey, link.ModuleKey, link.LevelID)
		if err != nil {
			return fmt.Errorf("insert module_level: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert module_level: %w", err)
		}
		link.ID = int(id)
		return nil
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE module_levels SET course_id = (SELECT id FROM courses WHERE course_key = ?), module_id = (SELECT id FROM modules WHERE module_key = ?), level_id = ? WHERE id = ?`,
		link.CourseKey, link.ModuleKey, link.LevelID, link.ID); err != nil {
		return fmt.Errorf("update module_level: %w", err)
	}
	return nil
}

// Delete removes the link row.
func (r *ModuleLevelRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM module_levels WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete module_level: %w", err)
	}
	return nil
}
