package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// MigrationState is one row of `migrate status`.
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

func newProvider(sqlDB *sql.DB, scheme string) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch scheme {
	case "postgres":
		dialect = goose.DialectPostgres
	case "mysql":
		dialect = goose.DialectMySQL
	case "sqlite":
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", scheme)
	}
	fsys, err := fs.Sub(migrations, "migrations/"+scheme)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, sqlDB, fsys)
}

// MigrateUp applies every pending migration and returns the versions applied.
func MigrateUp(ctx context.Context, sqlDB *sql.DB, scheme string) ([]int64, error) {
	p, err := newProvider(sqlDB, scheme)
	if err != nil {
		return nil, err
	}
	res, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	applied := make([]int64, 0, len(res))
	for _, r := range res {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// MigrateDown rolls back the most recent migration and returns its version.
func MigrateDown(ctx context.Context, sqlDB *sql.DB, scheme string) (int64, error) {
	p, err := newProvider(sqlDB, scheme)
	if err != nil {
		return 0, err
	}
	res, err := p.Down(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to roll back migration: %w", err)
	}
	return res.Source.Version, nil
}

func MigrationStatus(ctx context.Context, sqlDB *sql.DB, scheme string) ([]MigrationState, error) {
	p, err := newProvider(sqlDB, scheme)
	if err != nil {
		return nil, err
	}
	st, err := p.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationState, 0, len(st))
	for _, s := range st {
		out = append(out, MigrationState{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
