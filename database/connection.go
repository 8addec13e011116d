package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open initializes and verifies a database connection for the given driver.
// SQLite connections are limited to a single writer.
func Open(ctx context.Context, driver, dsn string, maxOpenConns int) (*sql.DB, error) {
	slog.Info("initializing database connection", "driver", driver)

	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
		maxOpenConns = 1
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connection established", "driver", driver)
	return db, nil
}

// sqliteDSN turns a bare path into a DSN with foreign keys and a busy timeout.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
