package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"strings"
	"time"

	"github.com/myrjola/gymstats/internal/contexthelpers"
	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/flightrecorder"
	"github.com/myrjola/gymstats/internal/logging"
	"github.com/myrjola/gymstats/internal/metrics"
)

// recordingWriter remembers the status code and the size of the response.
type recordingWriter struct {
	http.ResponseWriter
	status  int
	written int
	sent    bool
}

func newRecordingWriter(w http.ResponseWriter) *recordingWriter {
	return &recordingWriter{ResponseWriter: w, status: http.StatusOK, written: 0, sent: false}
}

func (rw *recordingWriter) WriteHeader(status int) {
	if !rw.sent {
		rw.status = status
		rw.sent = true
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.sent = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *recordingWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// cspDirectives are joined into the Content-Security-Policy. %[1]s is the per request nonce of the inline scripts
// and styles.
//
//nolint:gochecknoglobals // constant list.
var cspDirectives = []string{
	"default-src 'none'",
	"script-src 'nonce-%[1]s' 'strict-dynamic'",
	"style-src 'nonce-%[1]s' 'self'",
	"img-src 'self' data:",
	"connect-src 'self'",
	"manifest-src 'self'",
	"form-action 'self'",
	"frame-ancestors 'none'",
	"font-src 'none'",
	"object-src 'none'",
	"base-uri 'none'",
}

//nolint:gochecknoglobals // constant map.
var staticSecurityHeaders = map[string]string{
	"Referrer-Policy":              "origin-when-cross-origin",
	"X-Content-Type-Options":       "nosniff",
	"X-Frame-Options":              "deny",
	"X-XSS-Protection":             "0",
	"Cross-Origin-Opener-Policy":   "same-origin",
	"Cross-Origin-Resource-Policy": "same-origin",
	"Strict-Transport-Security":    "max-age=63072000; includeSubDomains; preload",
}

func secureHeaders(next http.Handler) http.Handler {
	policy := strings.Join(cspDirectives, "; ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce := rand.Text()
		h := w.Header()
		h.Set("Content-Security-Policy", fmt.Sprintf(policy, nonce))
		for k, v := range staticSecurityHeaders {
			h.Set(k, v)
		}
		next.ServeHTTP(w, contexthelpers.SetCSPNonce(r, nonce))
	})
}

func cacheForever(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		next.ServeHTTP(w, r)
	})
}

// noCache keeps pages rendered from the session state out of caches.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// logAndTraceRequest tags the request with a trace id used by the logs and the runtime/trace task, logs its outcome
// and observes its latency by route pattern.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		traceID := rand.Text()
		ctx := logging.WithAttrs(r.Context(),
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
			slog.String("proto", r.Proto),
		)
		r = contexthelpers.SetTraceID(r.WithContext(ctx), traceID)
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")

		rw := newRecordingWriter(w)
		if trace.IsEnabled() {
			var task *trace.Task
			ctx, task = trace.NewTask(ctx, "HTTP "+r.Method+" "+r.URL.Path)
			trace.Log(ctx, "trace_id", traceID)
			defer task.End()
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		metrics.ObserveRequest(r.Pattern, rw.status, elapsed)
		level := slog.LevelInfo
		if rw.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", rw.status),
			slog.Int("bytes", rw.written),
			slog.Duration("duration", elapsed))
	})
}

// recoverPanic renders the error page for panicking handlers. http.ErrAbortHandler is re-raised so that the server
// aborts the response silently.
func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			excp := recover()
			if excp == nil {
				return
			}
			if excp == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value.
				panic(excp)
			}
			app.serverError(w, r, errors.DecoratePanic(excp))
		}()
		next.ServeHTTP(w, r)
	})
}

func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, contexthelpers.SetCurrentPath(r, r.URL.Path))
	})
}

// crossOriginProtection rejects cross-origin state changing requests based on the Fetch metadata headers.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	return http.NewCrossOriginProtection().Handler(next)
}

// timeout answers 503 and cancels the request context a little before the write deadline of the server. A timed out
// request triggers a flight recorder capture when the recorder is enabled.
func (app *application) timeout(next http.Handler) http.Handler {
	const headroom = 200 * time.Millisecond
	handler := http.TimeoutHandler(next, defaultTimeout-headroom, "timed out")
	if app.flightRecorder == nil {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newRecordingWriter(w)
		handler.ServeHTTP(rw, r)
		if rw.status != http.StatusServiceUnavailable {
			return
		}
		if _, err := app.flightRecorder.Capture(r.Context(), "timeout"); err != nil &&
			!errors.Is(err, flightrecorder.ErrCooldown) {
			app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to capture trace", errors.SlogError(err))
		}
	})
}
