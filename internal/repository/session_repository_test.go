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

func TestSessionRepositoryFindAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "group_id", "day", "time", "rhythm", "duration", "tentative"}).
		AddRow(1, 3, "mon", 1, 0, 2, false).
		AddRow(2, nil, "fri", 4, 1, 2, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions ORDER BY id")).WillReturnRows(rows)

	sessions, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.NotNil(t, sessions[0].GroupID)
	assert.Equal(t, 3, *sessions[0].GroupID)
	assert.Nil(t, sessions[1].GroupID)
	assert.True(t, sessions[1].Tentative)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositorySave(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(nil, "mon", 1, 0, 2, false).
		WillReturnResult(sqlmock.NewResult(11, 1))

	session := &models.Session{Day: "mon", Time: 1, Duration: 2}
	require.NoError(t, repo.Save(context.Background(), session))
	assert.Equal(t, 11, session.ID)

	groupID := 3
	session.GroupID = &groupID
	mock.ExpectExec("UPDATE sessions SET").
		WithArgs(3, "mon", 1, 0, 2, false, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Save(context.Background(), session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryFindAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rows := sqlmock.NewRows([]string{"id", "unit_key", "half_semester"}).
		AddRow(3, "U-1", 1).
		AddRow(4, nil, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM groups g")).WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE group_id IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"group_id", "id"}).AddRow(3, 1).AddRow(3, 2))

	groups, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.NotNil(t, groups[0].UnitKey)
	assert.Equal(t, "U-1", *groups[0].UnitKey)
	assert.Equal(t, []int{1, 2}, groups[0].SessionIDs)
	assert.Nil(t, groups[1].UnitKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}
