// Command seed fills a running gymstats deployment with generated workout history through the records API and then
// load tests the statistics endpoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/myrjola/gymstats/internal/e2etest"
	"github.com/myrjola/gymstats/internal/logging"
	"github.com/myrjola/gymstats/internal/testhelpers"
)

const (
	defaultWorkouts         = 150
	historyDays             = 180
	batchSize               = 25
	maxConcurrentBatches    = 4
	maxConcurrentOperations = 20
	loadTestRequests        = 200
	requestTimeout          = 10 * time.Second
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
	legacyShare             = 5
)

type exercise struct {
	name  string
	group string
	// weight is the base working weight in kg. Zero means bodyweight.
	weight float64
}

// catalog mixes canonical names, English aliases and a label no alias matches so that the resolver is exercised.
var catalog = []exercise{
	{name: "Press de banca", group: "Pecho", weight: 70},
	{name: "Aperturas", group: "Chest", weight: 16},
	{name: "Dominadas", group: "Lats", weight: 0},
	{name: "Remo con barra", group: "Espalda", weight: 60},
	{name: "Press militar", group: "Shoulders", weight: 40},
	{name: "Curl de bíceps", group: "Biceps", weight: 14},
	{name: "Fondos", group: "Tríceps", weight: 0},
	{name: "Sentadilla", group: "Quads", weight: 100},
	{name: "Peso muerto rumano", group: "Femoral", weight: 80},
	{name: "Hip thrust", group: "Glutes", weight: 90},
	{name: "Elevación de talones", group: "Calves", weight: 50},
	{name: "Plancha", group: "Abdomen", weight: 0},
	{name: "Curl de muñeca", group: "Antebrazos", weight: 10},
	{name: "Russian twist", group: "Oblicuos", weight: 8},
	{name: "Stretching", group: "Movilidad", weight: 0},
}

type detail struct {
	Name        string  `json:"name"`
	MuscleGroup string  `json:"muscleGroup"`
	Series      int     `json:"series"`
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight"`
}

type record struct {
	ID            string         `json:"id"`
	CompletedAt   string         `json:"completedAt"`
	Details       []detail       `json:"details,omitempty"`
	SeriesByGroup map[string]int `json:"seriesByGroup,omitempty"`
	Series        int            `json:"series"`
	TotalReps     int            `json:"totalReps"`
	TotalVolume   float64        `json:"totalVolume"`
	ElapsedTime   int            `json:"elapsedTime"`
}

// generateRecords returns n workouts spread over the historyDays before now, oldest first. Every legacyShare-th
// workout uses the per group series payload.
func generateRecords(rng *rand.Rand, n int, now time.Time) []record {
	records := make([]record, 0, n)
	step := time.Duration(historyDays) * 24 * time.Hour / time.Duration(max(n, 1))
	start := now.Add(-time.Duration(historyDays) * 24 * time.Hour)
	for i := range n {
		completedAt := start.Add(time.Duration(i) * step).Add(time.Duration(rng.IntN(60)) * time.Minute)
		r := record{
			ID:          "seed-" + strconv.Itoa(i),
			CompletedAt: completedAt.UTC().Format(time.RFC3339),
			ElapsedTime: 1800 + rng.IntN(3600), //nolint:mnd // 30 to 90 minutes.
		}
		if i%legacyShare == legacyShare-1 {
			r.SeriesByGroup = make(map[string]int)
			for range 3 {
				e := catalog[rng.IntN(len(catalog))]
				series := 2 + rng.IntN(4) //nolint:mnd // 2 to 5 series.
				r.SeriesByGroup[e.group] += series
				r.Series += series
			}
			records = append(records, r)
			continue
		}
		for range 3 + rng.IntN(3) {
			e := catalog[rng.IntN(len(catalog))]
			d := detail{
				Name:        e.name,
				MuscleGroup: e.group,
				Series:      2 + rng.IntN(4), //nolint:mnd // 2 to 5 series.
				Reps:        6 + rng.IntN(7), //nolint:mnd // 6 to 12 reps.
				Weight:      e.weight,
			}
			if e.weight > 0 {
				d.Weight += float64(rng.IntN(5)) * 2.5 //nolint:mnd // plates.
			}
			r.Details = append(r.Details, d)
			r.Series += d.Series
			r.TotalReps += d.Series * d.Reps
			r.TotalVolume += float64(d.Series*d.Reps) * d.Weight
		}
		records = append(records, r)
	}
	return records
}

// importBatches posts the records in batches of batchSize.
func importBatches(ctx context.Context, client *e2etest.Client, records []record, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for start := 0; start < len(records); start += batchSize {
		batch := records[start:min(start+batchSize, len(records))]
		g.Go(func() error {
			body, err := json.Marshal(batch)
			if err != nil {
				return fmt.Errorf("marshal batch: %w", err)
			}
			batchCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()
			status, resp, err := client.PostJSON(batchCtx, "/api/records", body)
			if err != nil {
				return fmt.Errorf("post batch at %d: %w", start, err)
			}
			if status != http.StatusCreated {
				return fmt.Errorf("post batch at %d: status %d: %s", start, status, resp)
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "imported batch", slog.Int("start", start), slog.Int("size", len(batch)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("import batches: %w", err)
	}
	return nil
}

var loadTestPaths = []string{
	"/api/stats",
	"/api/stats?window=30&policy=absolute",
	"/api/stats?window=7&theme=dark",
	"/heatmap.svg?side=front",
	"/heatmap.svg?side=back&body=female",
	"/",
}

// runLoadTest requests the statistics endpoints concurrently and reports the success rate.
func runLoadTest(ctx context.Context, client *e2etest.Client, logger *slog.Logger) (float64, error) {
	var successCount, failureCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for i := range loadTestRequests {
		path := loadTestPaths[i%len(loadTestPaths)]
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()
			status, _, err := client.GetBody(reqCtx, path)
			if err != nil || status != http.StatusOK {
				failureCount.Add(1)
				logger.LogAttrs(reqCtx, slog.LevelWarn, "request failed",
					slog.String("path", path), slog.Int("status", status), slog.Any("error", err))
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("load test: %w", err)
	}

	total := successCount.Load() + failureCount.Load()
	rate := float64(successCount.Load()) / float64(total) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", rate))
	return rate, nil
}

func run(ctx context.Context, logger *slog.Logger, args []string) error {
	if len(args) < 2 || len(args) > 3 { //nolint:mnd // hostname and optional workout count.
		return fmt.Errorf("usage: %s <hostname> [workouts]", args[0])
	}
	hostname := args[1]
	workouts := defaultWorkouts
	if len(args) == 3 { //nolint:mnd // workout count given.
		var err error
		if workouts, err = strconv.Atoi(args[2]); err != nil || workouts <= 0 {
			return fmt.Errorf("invalid workout count %q", args[2])
		}
	}

	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}
	client, err := e2etest.NewClient(url)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return fmt.Errorf("server not ready: %w", err)
	}

	start := time.Now()
	//nolint:gosec // generated fixtures need no cryptographic randomness.
	rng := rand.New(rand.NewPCG(uint64(start.UnixNano()), uint64(workouts)))
	records := generateRecords(rng, workouts, start)
	if err = importBatches(ctx, client, records, logger); err != nil {
		return err
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "seeded workouts",
		slog.Int("count", len(records)), slog.Duration("duration", time.Since(start)))

	rate, err := runLoadTest(ctx, client, logger)
	if err != nil {
		return err
	}
	if rate < successRateThreshold {
		return fmt.Errorf("success rate %.1f%% below %.1f%%", rate, successRateThreshold)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()
	if len(os.Args) > 1 {
		ctx = logging.WithAttrs(ctx, slog.String("hostname", os.Args[1]))
	}
	if err := run(ctx, logger, os.Args); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}
