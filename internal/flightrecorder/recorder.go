// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when something slow happens.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	"github.com/myrjola/gymstats/internal/errors"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 << 20
	defaultCooldown = 30 * time.Minute
)

// ErrCooldown is returned by Capture when a snapshot was written less than the cooldown ago.
var ErrCooldown = errors.NewSentinel("capture cooldown")

// Recorder wraps a runtime/trace flight recorder. Snapshots are rate limited so that a burst of slow requests writes
// a single file.
type Recorder struct {
	logger   *slog.Logger
	fr       *trace.FlightRecorder
	dir      string
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

type Option func(*Recorder)

// WithCooldown sets the minimum time between snapshots.
func WithCooldown(d time.Duration) Option {
	return func(r *Recorder) {
		r.cooldown = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// New creates a recorder writing snapshots into dir. The directory is created when missing.
func New(logger *slog.Logger, dir string, opts ...Option) (*Recorder, error) {
	if dir == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd // owner only.
		return nil, errors.Wrap(err, "create traces directory", slog.String("dir", dir))
	}
	r := &Recorder{
		logger: logger,
		fr: trace.NewFlightRecorder(trace.FlightRecorderConfig{
			MinAge:   defaultMinAge,
			MaxBytes: defaultMaxBytes,
		}),
		dir:         dir,
		cooldown:    defaultCooldown,
		now:         time.Now,
		mu:          sync.Mutex{},
		lastCapture: time.Time{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start begins recording. Only one flight recorder can be active in a process.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.fr.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("dir", r.dir), slog.Duration("cooldown", r.cooldown))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.fr.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the recorded trace into a file named after reason and returns its path.
func (r *Recorder) Capture(ctx context.Context, reason string) (string, error) {
	r.mu.Lock()
	now := r.now()
	if !r.lastCapture.IsZero() && now.Sub(r.lastCapture) < r.cooldown {
		r.mu.Unlock()
		return "", ErrCooldown
	}
	r.lastCapture = now
	r.mu.Unlock()

	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create trace file", slog.String("file", path))
	}
	n, err := r.fr.WriteTo(f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.Wrap(err, "write trace", slog.String("file", path))
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("file", path), slog.String("reason", reason), slog.Int64("bytes", n))
	return path, nil
}
