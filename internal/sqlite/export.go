package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
)

// exportTables are copied by Export in an order that satisfies their foreign keys. Sessions are left out because
// they hold login tokens.
//
//nolint:gochecknoglobals // constant list.
var exportTables = []string{"workout_records", "exercise_details", "group_series"}

// Export copies the workout tables into a new SQLite file under dir and returns its path.
func (db *Database) Export(ctx context.Context, dir string) (_ string, err error) {
	exportPath := filepath.Join(dir, fmt.Sprintf("gymstats-export-%s.sqlite3", rand.Text()))
	exportDsn := fmt.Sprintf("file:%s?mode=rwc", exportPath)

	// ATTACH is not allowed inside a transaction and must happen on the same connection as the copy.
	conn, err := db.ReadWrite.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("get db connection: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close db connection: %w", closeErr))
		}
	}()

	if _, err = conn.ExecContext(ctx, `ATTACH DATABASE ? AS export`, exportDsn); err != nil {
		return "", fmt.Errorf("attach export database: %w", err)
	}
	defer func() {
		if _, detachErr := conn.ExecContext(context.WithoutCancel(ctx), `DETACH DATABASE export`); detachErr != nil {
			err = errors.Join(err, fmt.Errorf("detach export database: %w", detachErr))
		}
	}()

	if err = db.copyTables(ctx, conn); err != nil {
		return "", err
	}
	return exportPath, nil
}

func (db *Database) copyTables(ctx context.Context, conn *sql.Conn) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)()

	for _, table := range exportTables {
		var ddl string
		if err = tx.QueryRowContext(ctx,
			`SELECT sql FROM main.sqlite_schema WHERE type = 'table' AND name = ?`, table).Scan(&ddl); err != nil {
			return fmt.Errorf("read schema of %s: %w", table, err)
		}
		// The DDL starts with "CREATE TABLE <name>" which is qualified with the export schema.
		ddl = "CREATE TABLE export." + ddl[len("CREATE TABLE "):]
		if _, err = tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create export table %s: %w", table, err)
		}
		if _, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO export.%[1]s SELECT * FROM main.%[1]s`, table)); err != nil {
			return fmt.Errorf("copy table %s: %w", table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelDebug, "exported database")
	return nil
}
