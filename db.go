package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// This file implements the persistent store: the favorites toggle-set and
// the best-effort search audit log, both in PostgreSQL. Handlers depend on
// the favoritesStore interface so tests can substitute function-field mocks;
// the SQL implementation is tested with sqlmock.

// favoritesStore abstracts the persistence operations used by the handlers.
type favoritesStore interface {
	ListFavorites(ctx context.Context) ([]FavoriteEntry, error)
	ToggleFavorite(ctx context.Context, city string, lat, lon *float64) (ToggleResult, error)
	RecordSearch(ctx context.Context, query string) error
}

// pgStore is the PostgreSQL-backed favoritesStore.
type pgStore struct {
	db *sql.DB
}

func newPgStore(db *sql.DB) *pgStore {
	return &pgStore{db: db}
}

// ensureSchema creates the favorites and searches tables if they are
// missing. The unique constraint on city is what serializes concurrent
// toggles for the same entry.
func (s *pgStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS favorites (
	id UUID PRIMARY KEY,
	city TEXT NOT NULL UNIQUE,
	lat DOUBLE PRECISION,
	lon DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS searches (
	id UUID PRIMARY KEY,
	query TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("could not ensure schema: %w", err)
	}
	return nil
}

// ListFavorites returns every favorite, most recently created first.
func (s *pgStore) ListFavorites(ctx context.Context) ([]FavoriteEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, city, lat, lon, created_at FROM favorites ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("could not list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []FavoriteEntry{}
	for rows.Next() {
		var entry FavoriteEntry
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&entry.ID, &entry.City, &lat, &lon, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan favorite: %w", err)
		}
		if lat.Valid {
			entry.Lat = &lat.Float64
		}
		if lon.Valid {
			entry.Lon = &lon.Float64
		}
		favorites = append(favorites, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}
	return favorites, nil
}

// ToggleFavorite flips the presence of a city in the favorites set inside a
// single transaction. The delete runs first; if nothing was deleted the
// entry is inserted. When a racing transaction wins the unique constraint on
// city, the insert affects no row and the toggle falls through to a second
// delete, so two concurrent toggles still resolve to one add and one remove.
func (s *pgStore) ToggleFavorite(ctx context.Context, city string, lat, lon *float64) (ToggleResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("could not begin toggle: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE city = $1`, city)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("could not delete favorite: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return ToggleResult{}, fmt.Errorf("could not read delete result: %w", err)
	}
	if deleted > 0 {
		if err := tx.Commit(); err != nil {
			return ToggleResult{}, fmt.Errorf("could not commit toggle: %w", err)
		}
		return ToggleResult{Removed: true}, nil
	}

	entry := FavoriteEntry{
		ID:        uuid.New(),
		City:      city,
		Lat:       lat,
		Lon:       lon,
		CreatedAt: time.Now().UTC(),
	}
	var latArg, lonArg sql.NullFloat64
	if lat != nil {
		latArg = sql.NullFloat64{Float64: *lat, Valid: true}
	}
	if lon != nil {
		lonArg = sql.NullFloat64{Float64: *lon, Valid: true}
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO favorites (id, city, lat, lon, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (city) DO NOTHING`,
		entry.ID, entry.City, latArg, lonArg, entry.CreatedAt)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("could not insert favorite: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return ToggleResult{}, fmt.Errorf("could not read insert result: %w", err)
	}

	if inserted == 0 {
		// Lost the race to a concurrent add; this toggle removes it.
		if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE city = $1`, city); err != nil {
			return ToggleResult{}, fmt.Errorf("could not delete favorite after conflict: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return ToggleResult{}, fmt.Errorf("could not commit toggle: %w", err)
		}
		return ToggleResult{Removed: true}, nil
	}

	if err := tx.Commit(); err != nil {
		return ToggleResult{}, fmt.Errorf("could not commit toggle: %w", err)
	}
	return ToggleResult{Added: true, Row: &entry}, nil
}

// RecordSearch appends one row to the audit log. The log is write-only and
// non-authoritative; callers treat failures as ignorable.
func (s *pgStore) RecordSearch(ctx context.Context, query string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (id, query, created_at) VALUES ($1, $2, $3)`,
		uuid.New(), query, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("could not record search: %w", err)
	}
	return nil
}
