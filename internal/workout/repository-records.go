package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/gymstats/internal/sqlite"
	"github.com/myrjola/gymstats/internal/stats"
)

const (
	payloadNone          = "none"
	payloadDetails       = "details"
	payloadSeriesByGroup = "series_by_group"
)

// sqliteRecordRepository stores workout records with their payload rows.
type sqliteRecordRepository struct {
	baseRepository
}

func newSQLiteRecordRepository(db *sqlite.Database, logger *slog.Logger) *sqliteRecordRepository {
	return &sqliteRecordRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// List returns the records completed at or after since, newest first. A zero since returns every record including
// those without a completion time.
func (r *sqliteRecordRepository) List(ctx context.Context, since time.Time) (_ []stats.WorkoutRecord, err error) {
	query := `
		SELECT id, completed_at, payload_kind, series, total_reps, total_volume, elapsed_seconds
		FROM workout_records`
	var args []any
	if !since.IsZero() {
		query += ` WHERE completed_at >= ?`
		args = append(args, formatTimestamp(since))
	}
	query += ` ORDER BY completed_at DESC NULLS LAST, id`

	rows, err := r.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var (
		records []stats.WorkoutRecord
		kinds   = make(map[string]string)
	)
	for rows.Next() {
		var (
			record         stats.WorkoutRecord
			completedAt    sql.NullString
			kind           string
			elapsedSeconds float64
		)
		if err = rows.Scan(&record.ID, &completedAt, &kind, &record.Series, &record.TotalReps,
			&record.TotalVolume, &elapsedSeconds); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if record.CompletedAt, err = parseTimestamp(completedAt); err != nil {
			return nil, err
		}
		record.ElapsedTime = time.Duration(elapsedSeconds * float64(time.Second))
		kinds[record.ID] = kind
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err = r.loadPayloads(ctx, since, records, kinds); err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns a single record.
func (r *sqliteRecordRepository) Get(ctx context.Context, id string) (stats.WorkoutRecord, error) {
	var (
		record         = stats.WorkoutRecord{ID: id} //nolint:exhaustruct // filled below.
		completedAt    sql.NullString
		kind           string
		elapsedSeconds float64
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT completed_at, payload_kind, series, total_reps, total_volume, elapsed_seconds
		FROM workout_records
		WHERE id = ?`, id).Scan(&completedAt, &kind, &record.Series, &record.TotalReps, &record.TotalVolume,
		&elapsedSeconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stats.WorkoutRecord{}, ErrNotFound
		}
		return stats.WorkoutRecord{}, fmt.Errorf("query record: %w", err)
	}
	if record.CompletedAt, err = parseTimestamp(completedAt); err != nil {
		return stats.WorkoutRecord{}, err
	}
	record.ElapsedTime = time.Duration(elapsedSeconds * float64(time.Second))

	records := []stats.WorkoutRecord{record}
	if err = r.loadPayloads(ctx, time.Time{}, records, map[string]string{id: kind}); err != nil {
		return stats.WorkoutRecord{}, err
	}
	return records[0], nil
}

// loadPayloads fills the payloads of records with two queries instead of one per record.
func (r *sqliteRecordRepository) loadPayloads(
	ctx context.Context,
	since time.Time,
	records []stats.WorkoutRecord,
	kinds map[string]string,
) error {
	if len(records) == 0 {
		return nil
	}
	details := make(map[string]stats.DetailList)
	groupSeries := make(map[string]stats.GroupCountMap)

	filter, args := r.recordFilter(since, records)
	err := r.queryEach(ctx, `
		SELECT record_id, name, muscle_group, series, reps, weight
		FROM exercise_details
		WHERE `+filter+`
		ORDER BY record_id, position`, args, func(rows *sql.Rows) error {
		var (
			id string
			d  stats.ExerciseDetail
		)
		if err := rows.Scan(&id, &d.Name, &d.Group, &d.Series, &d.Reps, &d.Weight); err != nil {
			return fmt.Errorf("scan exercise detail: %w", err)
		}
		details[id] = append(details[id], d)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load exercise details: %w", err)
	}

	err = r.queryEach(ctx, `
		SELECT record_id, label, series
		FROM group_series
		WHERE `+filter, args, func(rows *sql.Rows) error {
		var (
			id, label string
			series    int
		)
		if err := rows.Scan(&id, &label, &series); err != nil {
			return fmt.Errorf("scan group series: %w", err)
		}
		if groupSeries[id] == nil {
			groupSeries[id] = make(stats.GroupCountMap)
		}
		groupSeries[id][label] = series
		return nil
	})
	if err != nil {
		return fmt.Errorf("load group series: %w", err)
	}

	for i := range records {
		id := records[i].ID
		switch kinds[id] {
		case payloadDetails:
			list := details[id]
			if list == nil {
				list = stats.DetailList{}
			}
			records[i].Payload = list
		case payloadSeriesByGroup:
			m := groupSeries[id]
			if m == nil {
				m = stats.GroupCountMap{}
			}
			records[i].Payload = m
		default:
			records[i].Payload = nil
		}
	}
	return nil
}

// recordFilter restricts payload queries to the loaded records.
func (r *sqliteRecordRepository) recordFilter(since time.Time, records []stats.WorkoutRecord) (string, []any) {
	if len(records) == 1 {
		return "record_id = ?", []any{records[0].ID}
	}
	if since.IsZero() {
		return "1 = 1", nil
	}
	return "record_id IN (SELECT id FROM workout_records WHERE completed_at >= ?)", []any{formatTimestamp(since)}
}

func (r *sqliteRecordRepository) queryEach(
	ctx context.Context,
	query string,
	args []any,
	fn func(rows *sql.Rows) error,
) (err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	for rows.Next() {
		if err = fn(rows); err != nil {
			return err
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

// Upsert stores records in one transaction. Existing records with the same id are replaced.
func (r *sqliteRecordRepository) Upsert(ctx context.Context, records []stats.WorkoutRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, record := range records {
			if err := r.replace(ctx, tx, record); err != nil {
				return fmt.Errorf("replace record %s: %w", record.ID, err)
			}
		}
		return nil
	})
}

func (r *sqliteRecordRepository) replace(ctx context.Context, tx *sql.Tx, record stats.WorkoutRecord) error {
	// Payload rows are removed by the cascading foreign keys.
	if _, err := tx.ExecContext(ctx, `DELETE FROM workout_records WHERE id = ?`, record.ID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	kind := payloadNone
	switch record.Payload.(type) {
	case stats.DetailList:
		kind = payloadDetails
	case stats.GroupCountMap:
		kind = payloadSeriesByGroup
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO workout_records (
			id, completed_at, payload_kind, series, total_reps, total_volume, elapsed_seconds
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, formatTimestamp(record.CompletedAt), kind, record.Series, record.TotalReps,
		record.TotalVolume, record.ElapsedTime.Seconds()); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	for i, d := range record.Details() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exercise_details (record_id, position, name, muscle_group, series, reps, weight)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.ID, i, d.Name, d.Group, d.Series, d.Reps, d.Weight); err != nil {
			return fmt.Errorf("insert exercise detail %d: %w", i, err)
		}
	}
	for label, series := range record.SeriesByGroup() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO group_series (record_id, label, series) VALUES (?, ?, ?)`,
			record.ID, label, series); err != nil {
			return fmt.Errorf("insert group series %q: %w", label, err)
		}
	}
	return nil
}

// Delete removes a record and its payload.
func (r *sqliteRecordRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM workout_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
