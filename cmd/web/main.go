package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/myrjola/gymstats/internal/envstruct"
	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/flightrecorder"
	"github.com/myrjola/gymstats/internal/heatmap"
	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/logging"
	"github.com/myrjola/gymstats/internal/muscle"
	"github.com/myrjola/gymstats/internal/sqlite"
	"github.com/myrjola/gymstats/internal/stats"
	"github.com/myrjola/gymstats/internal/workout"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	templateFS     fs.FS
	// pages caches the parsed page templates by page name.
	pages          sync.Map
	workoutService *workout.Service
	db             *sqlite.Database
	defaults       uiState
	// flightRecorder captures a trace when a request times out. Nil disables the capture.
	flightRecorder *flightrecorder.Recorder
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"GYMSTATS_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"GYMSTATS_SQLITE_URL" envDefault:"./gymstats.sqlite3"`
	// TemplatePath is the path to the directory containing the HTML templates.
	TemplatePath string `env:"GYMSTATS_TEMPLATE_PATH" envDefault:""`
	// DefaultWindowDays is the statistics window of new sessions. Zero means all time.
	DefaultWindowDays int `env:"GYMSTATS_DEFAULT_WINDOW_DAYS" envDefault:"30"`
	// DefaultPolicy is the intensity policy of new sessions, relative or absolute.
	DefaultPolicy string `env:"GYMSTATS_DEFAULT_POLICY" envDefault:"relative"`
	// SessionLifetime is how long the UI state is remembered.
	SessionLifetime time.Duration `env:"GYMSTATS_SESSION_LIFETIME" envDefault:"720h"`
	// TracesDir enables the flight recorder. Execution traces of timed out requests are written there.
	TracesDir string `env:"GYMSTATS_TRACES_DIR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	var policy intensity.Policy
	if policy, err = intensity.ParsePolicy(cfg.DefaultPolicy); err != nil {
		return errors.Wrap(err, "parse default policy", slog.String("policy", cfg.DefaultPolicy))
	}

	var htmlTemplatePath string
	if htmlTemplatePath, err = resolveAndVerifyTemplatePath(cfg.TemplatePath); err != nil {
		return errors.Wrap(err, "resolve template path")
	}

	atlas, err := heatmap.DefaultAtlas()
	if err != nil {
		return errors.Wrap(err, "load atlas")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "failed to close db",
				errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	var recorder *flightrecorder.Recorder
	if cfg.TracesDir != "" {
		if recorder, err = flightrecorder.New(logger, cfg.TracesDir); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	aggregator := stats.NewAggregator(muscle.MustNewResolver(muscle.DefaultAliases()))

	app := application{
		logger:         logger,
		sessionManager: initializeSessionManager(db, cfg.SessionLifetime),
		templateFS:     os.DirFS(htmlTemplatePath),
		workoutService: workout.NewService(db, logger, aggregator, atlas),
		db:             db,
		defaults:       newUIState(cfg.DefaultWindowDays, policy),
		flightRecorder: recorder,
	}

	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "routes")
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, handler); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func initializeSessionManager(dbs *sqlite.Database, lifetime time.Duration) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = lifetime
	sessionManager.Cookie.Name = "gymstats_session"
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
