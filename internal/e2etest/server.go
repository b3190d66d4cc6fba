package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/gymstats/internal/logging"
)

const (
	// LogAddrKey is the key under which the server logs its listen address.
	LogAddrKey = "addr"
	// LogDsnKey is the key under which the database logs its read-write DSN.
	LogDsnKey = "sqlDsn"
)

// RunFunc starts the application and blocks until ctx is cancelled.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is a running instance of the web application started for a test.
type Server struct {
	url    string
	client *Client
	db     *sql.DB
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// startupHandler forwards records to the wrapped handler and reports the first values logged under LogAddrKey and
// LogDsnKey.
type startupHandler struct {
	slog.Handler
	addr chan string
	dsn  chan string
}

func (h *startupHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case LogAddrKey:
			offer(h.addr, a.Value.String())
		case LogDsnKey:
			offer(h.dsn, a.Value.String())
		}
		return true
	})
	if err := h.Handler.Handle(ctx, r); err != nil {
		return fmt.Errorf("handle startup record: %w", err)
	}
	return nil
}

func (h *startupHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &startupHandler{Handler: h.Handler.WithAttrs(attrs), addr: h.addr, dsn: h.dsn}
}

func (h *startupHandler) WithGroup(name string) slog.Handler {
	return &startupHandler{Handler: h.Handler.WithGroup(name), addr: h.addr, dsn: h.dsn}
}

// offer sends v unless the channel already holds a value.
func offer(ch chan string, v string) {
	select {
	case ch <- v:
	default:
	}
}

// StartServer runs the application in the background, waits until /api/healthy answers and opens a direct
// connection to its database. The server is shut down when the test finishes.
//
// logSink receives the server logs, usually a testhelpers.Writer. lookupEnv has the signature of [os.LookupEnv].
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(t.Context())
	startup := &startupHandler{
		Handler: slog.NewTextHandler(logSink, &slog.HandlerOptions{
			AddSource:   false,
			Level:       slog.LevelDebug,
			ReplaceAttr: nil,
		}),
		addr: make(chan string, 1),
		dsn:  make(chan string, 1),
	}
	logger := slog.New(logging.NewContextHandler(startup))

	server := &Server{url: "", client: nil, db: nil, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(server.done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()
	t.Cleanup(server.Shutdown)

	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("server stopped during startup: %w", context.Cause(ctx))
		case addr = <-startup.addr:
		case dsn = <-startup.dsn:
		}
	}

	var err error
	server.url = "http://" + addr
	if server.client, err = NewClient(server.url); err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = server.client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	if server.db, err = sql.Open("sqlite3", dsn); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	t.Cleanup(func() {
		_ = server.db.Close()
	})
	return server, nil
}

// Client returns a client with its own cookie jar pointed at the server.
func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// DB is a connection to the server's database for arranging test data.
func (s *Server) DB() *sql.DB {
	return s.db
}

// Shutdown stops the server and waits for run to return.
func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.done
}
