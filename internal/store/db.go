// Package store persists endpoints, request history and settings in SQLite.
package store

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// timestampExpr matches the column defaults in the schema.
const timestampExpr = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

var (
	ErrNotFound             = errors.New("record not found")
	ErrNoFieldsToUpdate     = errors.New("no fields to update")
	ErrMissingCriteria      = errors.New("either id or endpoint id must be provided")
	ErrMissingUpsertOptions = errors.New("missing value type and category for new setting")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// Repository implements every storage operation over one connection.
type Repository struct {
	dbConn *sqlx.DB
}

// NewRepository wraps an open database.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{dbConn: db}
}

// Close closes the underlying database.
func (repo *Repository) Close() error {
	if err := repo.dbConn.Close(); err != nil {
		return fmt.Errorf("closing repo : %w", err)
	}
	return nil
}

// Open connects to the SQLite file at path, creating its directory if needed,
// and applies pending migrations.
func Open(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory : %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to db : %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting dialect for migrations : %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying migration : %w", err)
	}
	return db, nil
}

func nullableJSON(raw []byte) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}
