// Package store keeps PointSet payloads in a local SQLite database. It
// implements pointset.Source so the service can run without a
// PointSetManager.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/triangulator/internal/codec"
	"github.com/banshee-data/triangulator/internal/monitoring"
	"github.com/banshee-data/triangulator/internal/pointset"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// Store is a SQLite-backed point set store.
type Store struct {
	db *sql.DB
}

// Entry summarises a stored point set.
type Entry struct {
	ID         string
	PointCount int
	CreatedAt  time.Time
}

var _ pointset.Source = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps PRAGMAs and in-memory databases consistent.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}
	// m is not closed: closing it would close db.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores data under id, replacing any previous payload. data must be a
// well-formed PointSet.
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return errors.New("pointset id must not be empty")
	}
	points, err := codec.DecodePointSet(data)
	if err != nil {
		return fmt.Errorf("refusing to store %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pointsets (id, data, point_count) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			point_count = excluded.point_count,
			created_at = CURRENT_TIMESTAMP`,
		id, data, len(points))
	if err != nil {
		return fmt.Errorf("store pointset %s: %w", id, err)
	}
	return nil
}

// Fetch implements pointset.Source.
func (s *Store) Fetch(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM pointsets WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", pointset.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch pointset %s: %w", id, err)
	}
	return data, nil
}

// List returns every stored point set, oldest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, point_count, created_at FROM pointsets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list pointsets: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.PointCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pointset row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes id. Deleting an unknown id returns pointset.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pointsets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pointset %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", pointset.ErrNotFound, id)
	}
	return nil
}
