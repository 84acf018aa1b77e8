package dataset

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteSource stores documents in a single SQLite table keyed by resource
// name.
type SQLiteSource struct {
	DB   *sql.DB
	Path string
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema migrations. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteSource, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		dsn = "file:" + filepath.ToSlash(abs)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a second connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteSource{DB: db, Path: path}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to initialise migrate driver: %w", err)
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	defer func() { _ = src.Close() }()

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *SQLiteSource) Fetch(ctx context.Context, resource string) ([]byte, error) {
	name, err := cleanResource(resource)
	if err != nil {
		return nil, err
	}
	var body []byte
	err = s.DB.QueryRowContext(ctx, `SELECT body FROM resources WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", resource, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", resource, err)
	}
	return body, nil
}

// Put inserts or replaces the document stored under resource.
func (s *SQLiteSource) Put(ctx context.Context, resource string, body []byte) error {
	name, err := cleanResource(resource)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO resources (name, body) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET body = excluded.body,
    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`, name, body)
	if err != nil {
		return fmt.Errorf("storing %s: %w", resource, err)
	}
	return nil
}

// Names lists the stored resource names in order.
func (s *SQLiteSource) Names(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT name FROM resources ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteSource) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *SQLiteSource) String() string { return "sqlite:" + s.Path }
