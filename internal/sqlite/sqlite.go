package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	_ "embed"
)

//go:embed schema.sql
var schemaDefinition string

//go:embed fixtures.sql
var fixtures string

// Database holds a single writer connection and a pool of read-only connections to the same SQLite database.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to the database at url, migrates it to schema.sql and applies the fixtures.
//
// The url is a path to an SQLite file or ":memory:" for an in-memory database private to this Database.
// Writes are serialised on one connection as recommended in
// https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if _, err = db.ReadWrite.ExecContext(ctx, fixtures); err != nil {
		return nil, fmt.Errorf("apply fixtures: %w", err)
	}

	go db.startMaintenance(ctx, maintenanceInterval)

	return db, nil
}

//nolint:gochecknoglobals // the driver may only be registered once per process.
var registerDriver sync.Once

const optimizedDriver = "sqlite3optimized"

// registerOptimizedDriver registers a driver that applies performance pragmas on every new connection.
func registerOptimizedDriver() {
	sql.Register(optimizedDriver,
		&sqlite3.SQLiteDriver{
			Extensions: nil,
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				pragmas := "PRAGMA temp_store = memory;" +
					"PRAGMA mmap_size = 30000000000;" +
					// Checkpoints are run by the maintenance loop.
					"PRAGMA wal_autocheckpoint = 0;"
				if _, err := conn.Exec(pragmas, nil); err != nil {
					return fmt.Errorf("exec optimization pragmas: %w", err)
				}
				return nil
			},
		})
}

// dataSourceNames returns the read-write and read-only DSNs for url.
//
// Parameters without a leading underscore are SQLite URI parameters, see https://www.sqlite.org/uri.html. The
// underscored ones are interpreted by the driver, see https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open.
func dataSourceNames(url string) (string, string) {
	params := []string{
		"_loc=auto",
		"_defer_foreign_keys=1",
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}
	// In-memory databases get a random name and a shared cache so that the reader pool sees the writer's data
	// while parallel tests stay isolated.
	if strings.Contains(url, ":memory:") {
		url = rand.Text()
		params = append(params, "mode=memory", "cache=shared")
	}
	common := strings.Join(params, "&")
	readWrite := fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s", url, common)
	readOnly := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s", url, common)
	return readWrite, readOnly
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	readWriteDSN, readOnlyDSN := dataSourceNames(url)

	registerDriver.Do(registerOptimizedDriver)

	readWriteDB, err := openPool(ctx, readWriteDSN, 1)
	if err != nil {
		return nil, fmt.Errorf("open read-write database: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("sqlDsn", readWriteDSN))

	readDB, err := openPool(ctx, readOnlyDSN, 10) //nolint:mnd // reader pool size.
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open read database: %w", err), readWriteDB.Close())
	}

	return &Database{
		ReadWrite: readWriteDB,
		ReadOnly:  readDB,
		logger:    logger,
	}, nil
}

// openPool opens and pings a connection pool of at most maxConns connections.
func openPool(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open(optimizedDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)

	// sql.DB connects lazily so ping to surface configuration errors early.
	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping: %w", err), db.Close())
	}
	return db, nil
}

// Close closes the database connections.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}
