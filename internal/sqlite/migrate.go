package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"
)

// migrateTo brings the live schema in line with schemaDefinition.
//
// The migration is declarative. schemaDefinition is applied to an empty database attached as schemaTarget and the
// difference to the live schema is resolved inside one transaction:
//
//  1. tables missing from the target are dropped and tables missing from the live schema are created,
//  2. tables whose definition changed are rebuilt with the generalized ALTER TABLE procedure from
//     https://www.sqlite.org/lang_altertable.html#otheralter, copying the columns both definitions share,
//  3. indexes and triggers are dropped, created or recreated to match.
//
// See https://david.rothlis.net/declarative-schema-migration-for-sqlite/ for the idea.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) error {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// Foreign keys can only be toggled outside of transactions.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer db.enableForeignKeys(ctx)

	var tx *sql.Tx
	if tx, err = db.ReadWrite.BeginTx(ctx, nil); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer db.rollback(ctx, tx)()

	m := migration{db: db, tx: tx}
	if err = m.tables(ctx); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	for _, kind := range []schemaKind{schemaKindTrigger, schemaKindIndex} {
		if err = m.entities(ctx, kind); err != nil {
			return fmt.Errorf("migrate %ss: %w", kind, err)
		}
	}
	if err = m.checkForeignKeys(ctx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// enableForeignKeys turns foreign key enforcement back on. Running without it risks corrupting data so the process
// is stopped if that fails.
func (db *Database) enableForeignKeys(ctx context.Context) {
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "exit to avoid data corruption",
			slog.Any("error", fmt.Errorf("enable foreign keys: %w", err)))
		if err = syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			os.Exit(1)
		}
	}
}

// attachSchemaTarget creates the target schema in a temporary in-memory database and attaches it to the writer as
// schemaTarget. The returned function detaches it.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	// The shared cache keeps the in-memory database alive while the writer has it attached.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target",
				slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("apply schema definition: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target", slog.Any("error", detachErr))
		}
	}, nil
}

// rollback returns a function that rolls back tx unless it is already committed.
func (db *Database) rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				slog.Any("error", fmt.Errorf("rollback: %w", err)))
		}
	}
}

type schemaKind string

const (
	schemaKindTable   schemaKind = "table"
	schemaKindTrigger schemaKind = "trigger"
	schemaKindIndex   schemaKind = "index"
)

// Internal tables of SQLite and Litestream are never touched.
const ownedEntities = `AND name NOT LIKE 'sqlite_%' AND name NOT LIKE '_litestream_%'`

type schemaEntity struct {
	name    string
	liveSQL string
	newSQL  string
}

type migration struct {
	db *Database
	tx *sql.Tx
}

// removed returns the names of entities of kind that exist only in the live schema.
func (m migration) removed(ctx context.Context, kind schemaKind) ([]string, error) {
	return queryAll(ctx, m.tx, scanString, `SELECT name FROM main.sqlite_schema
WHERE type = :kind `+ownedEntities+`
  AND name NOT IN (SELECT name FROM schemaTarget.sqlite_schema WHERE type = :kind)`, sql.Named("kind", kind))
}

// added returns the definitions of entities of kind that exist only in the target schema.
func (m migration) added(ctx context.Context, kind schemaKind) ([]string, error) {
	return queryAll(ctx, m.tx, scanString, `SELECT sql FROM schemaTarget.sqlite_schema
WHERE type = :kind `+ownedEntities+`
  AND name NOT IN (SELECT name FROM main.sqlite_schema WHERE type = :kind)`, sql.Named("kind", kind))
}

// changed returns the entities of kind whose definitions differ. Renaming a table quotes its name in the stored
// definition so quotes are ignored in the comparison.
func (m migration) changed(ctx context.Context, kind schemaKind) ([]schemaEntity, error) {
	return queryAll(ctx, m.tx, func(rows *sql.Rows) (schemaEntity, error) {
		var e schemaEntity
		err := rows.Scan(&e.name, &e.liveSQL, &e.newSQL)
		return e, err //nolint:wrapcheck // wrapped by queryAll.
	}, `SELECT live.name, live.sql, target.sql
FROM main.sqlite_schema AS live
JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = :kind
  AND live.name NOT LIKE 'sqlite_%' AND live.name NOT LIKE '_litestream_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`, sql.Named("kind", kind))
}

func (m migration) exec(ctx context.Context, query string) error {
	m.db.logger.LogAttrs(ctx, slog.LevelInfo, "migration step", slog.String("query", query))
	if _, err := m.tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec %q: %w", query, err)
	}
	return nil
}

func (m migration) tables(ctx context.Context) error {
	removed, err := m.removed(ctx, schemaKindTable)
	if err != nil {
		return fmt.Errorf("query removed tables: %w", err)
	}
	for _, name := range removed {
		if err = m.exec(ctx, fmt.Sprintf("DROP TABLE %s;", name)); err != nil {
			return err
		}
	}

	added, err := m.added(ctx, schemaKindTable)
	if err != nil {
		return fmt.Errorf("query added tables: %w", err)
	}
	for _, createSQL := range added {
		if err = m.exec(ctx, createSQL); err != nil {
			return err
		}
	}

	changed, err := m.changed(ctx, schemaKindTable)
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, table := range changed {
		if err = m.rebuildTable(ctx, table); err != nil {
			return fmt.Errorf("rebuild table %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the shared columns, drops the old table
// and renames the new one into place.
func (m migration) rebuildTable(ctx context.Context, table schemaEntity) error {
	m.db.logger.LogAttrs(ctx, slog.LevelInfo, "rebuilding table",
		slog.String("table", table.name),
		slog.String("live_sql", table.liveSQL),
		slog.String("new_sql", table.newSQL))

	tempName := table.name + "_migration_temp"
	if err := m.exec(ctx, strings.Replace(table.newSQL, table.name, tempName, 1)); err != nil {
		return err
	}

	// Column names are quoted since some of them may be SQLite keywords.
	columns, err := queryAll(ctx, m.tx, scanString, `SELECT '"' || live.name || '"'
FROM PRAGMA_TABLE_INFO(:table) AS live
JOIN PRAGMA_TABLE_INFO(:table, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table", table.name))
	if err != nil {
		return fmt.Errorf("query shared columns: %w", err)
	}
	shared := strings.Join(columns, ", ")

	steps := []string{
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s;", tempName, shared, shared, table.name),
		fmt.Sprintf("DROP TABLE %s;", table.name),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", tempName, table.name),
	}
	for _, step := range steps {
		if err = m.exec(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// entities synchronises indexes or triggers. Changed ones are dropped and recreated.
func (m migration) entities(ctx context.Context, kind schemaKind) error {
	drop := func(name string) error {
		return m.exec(ctx, fmt.Sprintf("DROP %s IF EXISTS %s;", strings.ToUpper(string(kind)), name))
	}

	removed, err := m.removed(ctx, kind)
	if err != nil {
		return fmt.Errorf("query removed: %w", err)
	}
	for _, name := range removed {
		if err = drop(name); err != nil {
			return err
		}
	}

	changed, err := m.changed(ctx, kind)
	if err != nil {
		return fmt.Errorf("query changed: %w", err)
	}
	for _, e := range changed {
		if err = drop(e.name); err != nil {
			return err
		}
		if err = m.exec(ctx, e.newSQL); err != nil {
			return err
		}
	}

	// Rebuilt tables lose their indexes and triggers so additions are resolved last.
	added, err := m.added(ctx, kind)
	if err != nil {
		return fmt.Errorf("query added: %w", err)
	}
	for _, createSQL := range added {
		if err = m.exec(ctx, createSQL); err != nil {
			return err
		}
	}
	return nil
}

func (m migration) checkForeignKeys(ctx context.Context) error {
	violations, err := queryAll(ctx, m.tx, scanString, "SELECT \"table\" FROM PRAGMA_FOREIGN_KEY_CHECK")
	if err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("foreign key violations in tables %s", strings.Join(violations, ", "))
	}
	return nil
}

func scanString(rows *sql.Rows) (string, error) {
	var s string
	err := rows.Scan(&s)
	return s, err //nolint:wrapcheck // wrapped by queryAll.
}

// queryAll runs query in tx and scans every row with scan.
func queryAll[T any](
	ctx context.Context,
	tx *sql.Tx,
	scan func(*sql.Rows) (T, error),
	query string,
	args ...any,
) (_ []T, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var results []T
	for rows.Next() {
		var result T
		if result, err = scan(rows); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
