package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curriculum-tools/dataeditor/internal/models"
)

func TestLevelRepositoryFindAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLevelRepository(db)

	rows := sqlmock.NewRows([]string{"id", "art", "name", "tm", "min", "max", "min_credit_points", "max_credit_points", "parent_id"}).
		AddRow(1, "cp", "Pflichtbereich", "", nil, nil, 90, 90, nil).
		AddRow(2, "mods", "Wahlbereich", "", 1, 3, nil, nil, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM levels ORDER BY id")).WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_levels")).
		WillReturnRows(sqlmock.NewRows([]string{"level_id", "course_key"}).AddRow(1, "B-INF-H-2013"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM module_levels")).
		WillReturnRows(sqlmock.NewRows([]string{"level_id", "module_key"}).AddRow(2, "M-100"))

	levels, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, levels, 2)

	require.NotNil(t, levels[0].CourseKey)
	assert.Equal(t, "B-INF-H-2013", *levels[0].CourseKey)
	assert.Nil(t, levels[0].Min)
	require.NotNil(t, levels[0].MinCreditPoints)
	assert.Equal(t, 90, *levels[0].MinCreditPoints)

	assert.Nil(t, levels[1].CourseKey)
	assert.Equal(t, []string{"M-100"}, levels[1].ModuleKeys)
	require.NotNil(t, levels[1].ParentID)
	assert.Equal(t, 1, *levels[1].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLevelRepositorySaveInsertWithCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLevelRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO levels").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_levels WHERE level_id = ?")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO course_levels").
		WithArgs(9, "B-INF-H-2013").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	key := "B-INF-H-2013"
	level := &models.Level{Name: "Pflichtbereich", CourseKey: &key}
	require.NoError(t, repo.Save(context.Background(), level))
	assert.Equal(t, 9, level.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLevelRepositoryDeleteDetachesChildren(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLevelRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE levels SET parent_id = NULL WHERE parent_id = ?")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_levels WHERE level_id = ?")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM levels WHERE id = ?")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
