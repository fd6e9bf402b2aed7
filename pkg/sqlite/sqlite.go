package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type Config struct {
	Path          string `envconfig:"DB_PATH" default:"db/retail.db"`
	BusyTimeoutMS int    `envconfig:"DB_BUSY_TIMEOUT_MS" default:"5000"`
}

// New opens the database file. When mustExist is set a missing file is an error,
// matching the serve path where the store is seeded externally.
//
// A single connection is kept open: sqlite serializes writers anyway and the
// per-connection pragmas below then apply to every statement.
func (c *Config) New(ctx context.Context, mustExist bool) (*bun.DB, error) {
	if mustExist {
		if _, err := os.Stat(c.Path); err != nil {
			return nil, fmt.Errorf("db file not found at %s: %w", c.Path, err)
		}
	} else if dir := filepath.Dir(c.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+c.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys = ON;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", c.BusyTimeoutMS),
	}
	for _, p := range pragmas {
		if _, err := sqldb.ExecContext(ctx, p); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// OpenMemory opens a private in-memory database, used by tests and demos.
func OpenMemory(name string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
