package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const maintenanceInterval = time.Hour

// startMaintenance optimizes the query planner statistics and checkpoints the WAL once per interval until ctx is
// done. See https://www.sqlite.org/pragma.html#pragma_optimize.
func (db *Database) startMaintenance(ctx context.Context, interval time.Duration) {
	// Recommended for long-lived connections.
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize = 0x10002;"); err != nil && ctx.Err() == nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database",
			slog.Any("error", fmt.Errorf("init optimize database: %w", err)))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.maintain(ctx)
		}
	}
}

// maintain runs one round of maintenance. The WAL is checkpointed here because automatic checkpoints are disabled
// on every connection.
func (db *Database) maintain(ctx context.Context) {
	start := time.Now()
	if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database",
			slog.Any("error", fmt.Errorf("optimize database: %w", err)))
		return
	}
	var busy, logFrames, checkpointed int
	if err := db.ReadWrite.QueryRowContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);").
		Scan(&busy, &logFrames, &checkpointed); err != nil {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to checkpoint database",
			slog.Any("error", fmt.Errorf("checkpoint wal: %w", err)))
		return
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "maintained database",
		slog.Duration("duration", time.Since(start)),
		slog.Int("checkpointed_frames", checkpointed),
		slog.Bool("busy", busy != 0))
}
