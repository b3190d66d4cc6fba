package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/gymstats/internal/sqlite"
)

// timestampFormat has a fixed width so that stored timestamps compare correctly as text.
const timestampFormat = "2006-01-02T15:04:05.000Z"

type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{
		db:     db,
		logger: logger,
	}
}

// inTx runs fn in a read-write transaction and commits when fn succeeds.
func (r baseRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// formatTimestamp stores the zero time and instants without a four digit UTC year as NULL.
func formatTimestamp(t time.Time) sql.NullString {
	if y := t.UTC().Year(); t.IsZero() || y < 0 || y > 9999 {
		return sql.NullString{String: "", Valid: false}
	}
	return sql.NullString{String: t.UTC().Format(timestampFormat), Valid: true}
}

func parseTimestamp(s sql.NullString) (time.Time, error) {
	if !s.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(timestampFormat, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s.String, err)
	}
	return t, nil
}
