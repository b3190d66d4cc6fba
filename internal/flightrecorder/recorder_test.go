package flightrecorder_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/flightrecorder"
	"github.com/myrjola/gymstats/internal/testhelpers"
)

func TestRecorder_Capture(t *testing.T) {
	ctx := t.Context()
	dir := filepath.Join(t.TempDir(), "traces")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r, err := flightrecorder.New(testhelpers.NewLogger(testhelpers.NewWriter(t)), dir,
		flightrecorder.WithCooldown(time.Minute),
		flightrecorder.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err = r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop(ctx)

	path, err := r.Capture(ctx, "timeout")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if base := filepath.Base(path); base != "timeout-20260301-120000.trace" {
		t.Errorf("file = %s", base)
	}
	if info, statErr := os.Stat(path); statErr != nil || info.Size() == 0 {
		t.Errorf("trace file missing or empty: %v", statErr)
	}

	if _, err = r.Capture(ctx, "timeout"); !errors.Is(err, flightrecorder.ErrCooldown) {
		t.Errorf("second Capture() error = %v, want ErrCooldown", err)
	}

	now = now.Add(time.Minute)
	if path, err = r.Capture(ctx, "timeout"); err != nil || !strings.HasSuffix(path, "120100.trace") {
		t.Errorf("Capture() after cooldown = %s, %v", path, err)
	}
}

func TestNew_requiresDir(t *testing.T) {
	if _, err := flightrecorder.New(testhelpers.NewLogger(testhelpers.NewWriter(t)), ""); err == nil {
		t.Error("New() without directory succeeded")
	}
}
