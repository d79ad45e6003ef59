// Package repository implements the store port over a single-file SQLite
// database using sqlx. Every repository offers a full-table FindAll, an
// upsert-by-identity Save and a Delete; relation join rows are written by the
// side that owns the relation in the schema.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

// CourseRepository handles persistence for courses and their major/minor
// relation rows.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindAll returns every course with its raw major/minor key lists attached.
func (r *CourseRepository) FindAll(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, course_key, short_name, long_name, degree, po, credit_points, kzfa FROM courses ORDER BY id`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	majors, err := r.relationKeys(ctx, "course_majors", "major_id")
	if err != nil {
		return nil, err
	}
	minors, err := r.relationKeys(ctx, "course_minors", "minor_id")
	if err != nil {
		return nil, err
	}

	for i := range courses {
		courses[i].MajorKeys = majors[courses[i].ID]
		courses[i].MinorKeys = minors[courses[i].ID]
	}
	return courses, nil
}

type relationRow struct {
	CourseID int    `db:"course_id"`
	Key      string `db:"course_key"`
}

func (r *CourseRepository) relationKeys(ctx context.Context, table, column string) (map[int][]string, error) {
	query := fmt.Sprintf(
		"SELECT rel.course_id AS course_id, c.course_key AS course_key FROM %s rel JOIN courses c ON c.id = rel.%s",
		table, column,
	)
	var rows []relationRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	keys := make(map[int][]string, len(rows))
	for _, row := range rows {
		keys[row.CourseID] = append(keys[row.CourseID], row.Key)
	}
	return keys, nil
}

// Save upserts the course row by identity and replaces its relation rows
// from MajorKeys/MinorKeys. Keys that resolve to no course are skipped.
func (r *CourseRepository) Save(ctx context.Context, course *models.Course) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save course: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if course.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO courses (course_key, short_name, long_name, degree, po, credit_points, kzfa) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			course.Key, course.ShortName, course.LongName, course.Degree, course.PO, course.CreditPoints, course.Kzfa)
		if err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		course.ID = int(id)
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE courses SET course_key = ?, short_name = ?, long_name = ?, degree = ?, po = ?, credit_points = ?, kzfa = ? WHERE id = ?`,
			course.Key, course.ShortName, course.LongName, course.Degree, course.PO, course.CreditPoints, course.Kzfa, course.ID); err != nil {
			return fmt.Errorf("update course: %w", err)
		}
	}

	if err := replaceCourseRelations(ctx, tx, "course_majors", "major_id", course.ID, course.MajorKeys); err != nil {
		return err
	}
	if err := replaceCourseRelations(ctx, tx, "course_minors", "minor_id", course.ID, course.MinorKeys); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save course: commit: %w", err)
	}
	return nil
}

func replaceCourseRelations(ctx context.Context, tx *sqlx.Tx, table, column string, courseID int, keys []string) error {
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE course_id = ?", table), courseID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (course_id, %s) SELECT ?, id FROM courses WHERE course_key = ?", table, column),
			courseID, key); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// Delete removes the course and any relation rows pointing at it.
func (r *CourseRepository) Delete(ctx context.Context, key string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete course: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		`DELETE FROM course_majors WHERE course_id IN (SELECT id FROM courses WHERE course_key = ?) OR major_id IN (SELECT id FROM courses WHERE course_key = ?)`,
		`DELETE FROM course_minors WHERE course_id IN (SELECT id FROM courses WHERE course_key = ?) OR minor_id IN (SELECT id FROM courses WHERE course_key = ?)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, key, key); err != nil {
			return fmt.Errorf("delete course relations: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE course_key = ?`, key); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete course: commit: %w", err)
	}
	return nil
}
