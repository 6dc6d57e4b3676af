package main

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*pgStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newPgStore(db), mock
}

func TestEnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS favorites").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.ensureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFavorites(t *testing.T) {
	store, mock := newMockStore(t)

	lat, lon := -32.95, -60.64
	newer := time.Now().UTC()
	older := newer.Add(-time.Hour)

	rows := sqlmock.NewRows([]string{"id", "city", "lat", "lon", "created_at"}).
		AddRow(uuid.New().String(), "Rosario", lat, lon, newer).
		AddRow(uuid.New().String(), "Seoul", nil, nil, older)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, city, lat, lon, created_at FROM favorites ORDER BY created_at DESC`)).
		WillReturnRows(rows)

	favorites, err := store.ListFavorites(context.Background())
	require.NoError(t, err)
	require.Len(t, favorites, 2)

	assert.Equal(t, "Rosario", favorites[0].City)
	require.NotNil(t, favorites[0].Lat)
	assert.Equal(t, lat, *favorites[0].Lat)
	require.NotNil(t, favorites[0].Lon)
	assert.Equal(t, lon, *favorites[0].Lon)

	assert.Equal(t, "Seoul", favorites[1].City)
	assert.Nil(t, favorites[1].Lat)
	assert.Nil(t, favorites[1].Lon)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavorite_RemovesExisting(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM favorites WHERE city = $1`)).
		WithArgs("Rosario").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := store.ToggleFavorite(context.Background(), "Rosario", nil, nil)
	require.NoError(t, err)

	assert.True(t, result.Removed)
	assert.False(t, result.Added)
	assert.Nil(t, result.Row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavorite_AddsMissing(t *testing.T) {
	store, mock := newMockStore(t)

	lat, lon := -32.95, -60.64

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM favorites WHERE city = $1`)).
		WithArgs("Rosario").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO favorites").
		WithArgs(sqlmock.AnyArg(), "Rosario", lat, lon, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := store.ToggleFavorite(context.Background(), "Rosario", &lat, &lon)
	require.NoError(t, err)

	assert.True(t, result.Added)
	assert.False(t, result.Removed)
	require.NotNil(t, result.Row)
	assert.Equal(t, "Rosario", result.Row.City)
	require.NotNil(t, result.Row.Lat)
	assert.Equal(t, lat, *result.Row.Lat)
	assert.NotEqual(t, uuid.Nil, result.Row.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavorite_LostInsertRace(t *testing.T) {
	// The delete saw nothing and the insert hit the unique constraint: a
	// concurrent toggle added the city in between. This toggle then removes
	// it, so the pair still nets out to one add and one remove.
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM favorites WHERE city = $1`)).
		WithArgs("Rosario").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO favorites").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM favorites WHERE city = $1`)).
		WithArgs("Rosario").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := store.ToggleFavorite(context.Background(), "Rosario", nil, nil)
	require.NoError(t, err)

	assert.True(t, result.Removed)
	assert.False(t, result.Added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavorite_DeleteError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM favorites WHERE city = $1`)).
		WithArgs("Rosario").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := store.ToggleFavorite(context.Background(), "Rosario", nil, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSearch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO searches").
		WithArgs(sqlmock.AnyArg(), "rosario", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.RecordSearch(context.Background(), "rosario"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
