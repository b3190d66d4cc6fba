package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/gymstats/internal/e2etest"
	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/logging"
	"github.com/myrjola/gymstats/internal/testhelpers"
)

// TestPages checks that the HTML pages render with their main content.
func TestPages(ctx context.Context, client *e2etest.Client) error {
	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return fmt.Errorf("get dashboard: %w", err)
	}
	if doc.Find("dd[data-kpi=workouts]").Length() != 1 {
		return errors.New("dashboard lacks the workout count")
	}
	if doc, err = client.GetDoc(ctx, "/heatmap"); err != nil {
		return fmt.Errorf("get heatmap: %w", err)
	}
	if doc.Find("svg path[data-muscle]").Length() == 0 {
		return errors.New("heatmap has no muscle regions")
	}
	return nil
}

// TestAPI checks the JSON endpoints and the metrics exposition.
func TestAPI(ctx context.Context, client *e2etest.Client) error {
	status, body, err := client.GetBody(ctx, "/api/stats?window=30")
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("get stats: status %d", status)
	}
	var view struct {
		Groups []json.RawMessage `json:"groups"`
	}
	if err = json.Unmarshal(body, &view); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}
	if len(view.Groups) == 0 {
		return errors.New("stats has no groups")
	}

	if status, body, err = client.GetBody(ctx, "/metrics"); err != nil {
		return fmt.Errorf("get metrics: %w", err)
	}
	if status != http.StatusOK || !strings.Contains(string(body), "gymstats_http_request_duration_seconds") {
		return fmt.Errorf("metrics missing request histogram: status %d", status)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()
	if err = TestPages(testCtx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing pages", slog.Any("error", err))
		os.Exit(1) //nolint:gocritic // exiting after cancel is fine here.
	}
	if err = TestAPI(testCtx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing api", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
