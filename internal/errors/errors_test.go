package errors_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/testhelpers"
)

// here returns the file:line of its caller shifted by offset lines.
func here(offset int) string {
	_, file, line, _ := runtime.Caller(1)
	return file + ":" + strconv.Itoa(line+offset)
}

func TestError(t *testing.T) {
	root := errors.NewSentinel("unknown diagram")
	tests := []struct {
		name   string
		err    error
		want   string
		isRoot bool
	}{
		{name: "sentinel", err: root, want: "unknown diagram", isRoot: true},
		{name: "new", err: errors.New("empty atlas", slog.Int("diagrams", 0)), want: "empty atlas", isRoot: false},
		{
			name:   "wrap",
			err:    errors.Wrap(root, "render", slog.String("body", "male")),
			want:   "render: unknown diagram",
			isRoot: true,
		},
		{
			name:   "nested wrap",
			err:    errors.Wrap(errors.Wrap(root, "render"), "heatmap page"),
			want:   "heatmap page: render: unknown diagram",
			isRoot: true,
		},
		{
			name:   "with keeps message",
			err:    errors.With(root, slog.String("side", "back")),
			want:   "unknown diagram",
			isRoot: true,
		},
		{name: "wrap nil", err: errors.Wrap(nil, "no cause"), want: "no cause", isRoot: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if got := errors.Is(tt.err, root); got != tt.isRoot {
				t.Errorf("Is() = %t, want %t", got, tt.isRoot)
			}
		})
	}

	if errors.With(nil, slog.String("k", "v")) != nil {
		t.Error("With(nil) != nil")
	}
}

func TestAs(t *testing.T) {
	root := &customError{"custom error"}
	wrapped := errors.Wrap(fmt.Errorf("middle: %w", root), "outer")

	var target *customError
	if !errors.As(wrapped, &target) || target != root {
		t.Errorf("As() target = %v, want %v", target, root)
	}
	var wrong *wrongError
	if errors.As(wrapped, &wrong) {
		t.Error("As() = true for the wrong type")
	}
	if errors.Unwrap(errors.Wrap(root, "outer")) != root { //nolint:errorlint // identity check.
		t.Error("Unwrap() did not return the cause")
	}
}

func TestAttrs(t *testing.T) {
	inner := errors.Wrap(errors.NewSentinel("root"), "inner", slog.String("body", "male"), slog.Int("n", 1))
	outer := errors.Wrap(fmt.Errorf("middle: %w", inner), "outer", slog.Int("n", 2))
	joined := errors.Join(outer, errors.New("sibling", slog.String("side", "back")))

	got := errors.Attrs(joined)
	want := []slog.Attr{slog.Int("n", 2), slog.String("body", "male"), slog.String("side", "back")}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b slog.Attr) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("Attrs() mismatch (-want +got):\n%s", diff)
	}
	if attrs := errors.Attrs(errors.NewSentinel("plain")); attrs != nil {
		t.Errorf("Attrs() of a plain error = %v", attrs)
	}
}

func TestSlogError(t *testing.T) {
	attrs := []slog.Attr{slog.String("key", "value"), slog.Duration("duration", time.Second)}
	err, line := errors.Wrap(errors.NewSentinel("root cause"), "context", attrs...), here(0)
	var buf bytes.Buffer
	testhelpers.NewLogger(&buf).Info("test", errors.SlogError(err))
	logLine := buf.String()
	for _, content := range []string{
		"error.message=\"context: root cause\"",
		"error.annotations.key=value",
		"error.annotations.duration=1s",
		line,
	} {
		if !strings.Contains(logLine, content) {
			t.Errorf("log line %s lacks %s", logLine, content)
		}
	}
	if strings.Contains(logLine, "internal/errors/errors.go") {
		t.Error("stack trace includes the errors package itself")
	}

	t.Run("Degenerate errors", func(t *testing.T) {
		for _, err := range []error{
			nil,
			errors.Join(nil, nil, errors.NewSentinel("sentinel"), errors.New("test")),
			fmt.Errorf("test: %w", errors.NewSentinel("sentinel")),
			errors.Wrap(errors.Join(nil, nil), "wrap error"),
		} {
			_ = errors.SlogError(err).String()
		}
		if attr := errors.SlogError(nil); !attr.Equal(slog.Attr{}) {
			t.Errorf("SlogError(nil) = %v", attr)
		}
	})
}

func TestDecoratePanic(t *testing.T) {
	if errors.DecoratePanic(nil) != nil {
		t.Error("DecoratePanic(nil) != nil")
	}
	var line string
	defer func() {
		err := errors.DecoratePanic(recover())
		if err == nil {
			t.Fatal("expected error")
		}
		if got, want := err.Error(), "panic: test"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if got := errors.SlogError(err).String(); !strings.Contains(got, line) {
			t.Errorf("stack %q lacks the panicking line %s", got, line)
		}
	}()
	line = here(1)
	panic("test")
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

type wrongError struct{}

func (e *wrongError) Error() string {
	return "wrong error"
}
