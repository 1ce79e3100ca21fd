//go:build unit

package data

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockThemeRepository(t *testing.T) (*ThemeRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewThemeRepository(sqlx.NewDb(db, DriverSQLite)), mock
}

func TestActivate_RollsBackWhenTwoThemesEndUpActive(t *testing.T) {
	repo, mock := newMockThemeRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM themes WHERE id = \?`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE themes SET is_active = 0`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE themes SET is_active = 1 WHERE id = \?`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id FROM themes WHERE is_active = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), 2)
	assert.ErrorIs(t, err, ErrInconsistentActiveTheme)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_RollsBackWhenWrongThemeIsActive(t *testing.T) {
	repo, mock := newMockThemeRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM themes WHERE id = \?`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE themes SET is_active = 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE themes SET is_active = 1 WHERE id = \?`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM themes WHERE is_active = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), 2)
	assert.ErrorIs(t, err, ErrInconsistentActiveTheme)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_RollsBackOnExecError(t *testing.T) {
	repo, mock := newMockThemeRepository(t)
	dbErr := errors.New("database is locked")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM themes WHERE id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE themes SET is_active = 0`).
		WillReturnError(dbErr)
	mock.ExpectRollback()

	err := repo.Activate(context.Background(), 1)
	assert.ErrorIs(t, err, dbErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_Commits(t *testing.T) {
	repo, mock := newMockThemeRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM themes WHERE id = \?`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE themes SET is_active = 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE themes SET is_active = 1 WHERE id = \?`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id FROM themes WHERE is_active = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	require.NoError(t, repo.Activate(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RollsBackInsertWhenActivationFails(t *testing.T) {
	repo, mock := newMockThemeRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO themes`).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(`INSERT INTO theme_colors`).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM themes WHERE id = \?`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE themes SET is_active = 0`).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	theme := &Theme{Name: "Coral", Slug: "coral", IsCustom: true,
		Colors: &ThemeColors{Primary: "#ff7f50", Secondary: "#333333", Accent: "#ffffff"}}
	err := repo.Create(context.Background(), theme, true)
	assert.Error(t, err)
	assert.Zero(t, theme.ID)
	assert.False(t, theme.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RollsBackRenameWhenActivationIsInconsistent(t *testing.T) {
	repo, mock := newMockThemeRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM themes WHERE id = \?`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE themes SET name = \?, slug = \? WHERE id = \?`).
		WithArgs("Dusk", "dusk", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id FROM theme_colors WHERE theme_id = \?`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec(`UPDATE theme_colors SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM themes WHERE id = \?`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE themes SET is_active = 0`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE themes SET is_active = 1 WHERE id = \?`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id FROM themes WHERE is_active = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectRollback()

	theme := &Theme{ID: 2, Name: "Dusk", Slug: "dusk",
		Colors: &ThemeColors{Primary: "#101010", Secondary: "#202020", Accent: "#303030"}}
	err := repo.Update(context.Background(), theme, true)
	assert.ErrorIs(t, err, ErrInconsistentActiveTheme)
	assert.False(t, theme.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackAndRepanics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = WithTx(context.Background(), sqlx.NewDb(db, DriverSQLite), func(tx *sqlx.Tx) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSequences_RollsBackWholeBatchOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewEventRepository(sqlx.NewDb(db, DriverSQLite))

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`UPDATE events SET sequence = \? WHERE id = \?`)
	prep.ExpectExec().WithArgs(1.5, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(3.2, int64(2)).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	updated, err := repo.UpdateSequences(context.Background(), map[int64]float64{1: 1.5, 2: 3.2})
	assert.Error(t, err)
	assert.Zero(t, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}
