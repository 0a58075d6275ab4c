package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/screens/pkg/types"
)

var errDisk = errors.New("disk I/O error")

func mockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	b := NewBackend()
	b.attachDB(sqlx.NewDb(db, "sqlmock"))
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return b, mock
}

func TestRepository_SaveInsertFailure(t *testing.T) {
	b, mock := mockBackend(t)
	repo, err := b.Repository(types.TypeProject, newProject)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO entities").WillReturnError(errDisk)

	_, err = repo.Save(context.Background(), &types.Project{Name: "x"})
	assert.ErrorIs(t, err, errDisk)
}

func TestRepository_ListCountFailure(t *testing.T) {
	b, mock := mockBackend(t)
	repo, err := b.Repository(types.TypeProject, newProject)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT").WithArgs(types.TypeProject).WillReturnError(errDisk)

	_, err = repo.List(context.Background(), nil, types.Page{})
	assert.ErrorIs(t, err, errDisk)
}

func TestRepository_UpdateReportsStoredVersion(t *testing.T) {
	b, mock := mockBackend(t)
	repo, err := b.Repository(types.TypeProject, newProject)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE entities").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM entities").
		WithArgs(types.TypeProject, "p1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(7))

	p := &types.Project{Name: "x"}
	p.ID = "p1"
	p.Version = 3
	_, err = repo.Save(context.Background(), p)
	assert.ErrorIs(t, err, types.ErrConcurrencyConflict)
	assert.Contains(t, err.Error(), "version 7, not 3")
}

func TestScreenStore_CommitFailureLeavesDefinition(t *testing.T) {
	b, mock := mockBackend(t)
	s, err := b.ScreenStore()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT screen_id FROM screens WHERE name").
		WillReturnRows(sqlmock.NewRows([]string{"screen_id"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO screens").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM screen_lines").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO screen_lines").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errDisk)

	def := &types.ScreenDefinition{Name: "s", EntityType: types.TypeUser,
		Lines: []types.Line{types.SectionMarker("Main", "", "")}}
	def.Renumber()

	err = s.SaveScreen(context.Background(), def)
	assert.ErrorIs(t, err, errDisk)
	assert.Empty(t, def.ScreenID)
	assert.Empty(t, def.Lines[0].LineID)
}
