// Package workout stores completed workouts and serves the statistics computed from them.
package workout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/heatmap"
	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/metrics"
	"github.com/myrjola/gymstats/internal/muscle"
	"github.com/myrjola/gymstats/internal/sqlite"
	"github.com/myrjola/gymstats/internal/stats"
)

// Service handles the business logic of workout records and their statistics.
type Service struct {
	records    *sqliteRecordRepository
	aggregator *stats.Aggregator
	atlas      *heatmap.Atlas
	logger     *slog.Logger
}

// NewService creates a new workout service.
func NewService(
	db *sqlite.Database,
	logger *slog.Logger,
	aggregator *stats.Aggregator,
	atlas *heatmap.Atlas,
) *Service {
	return &Service{
		records:    newSQLiteRecordRepository(db, logger),
		aggregator: aggregator,
		atlas:      atlas,
		logger:     logger,
	}
}

// Records returns every stored record, newest first.
func (s *Service) Records(ctx context.Context) ([]stats.WorkoutRecord, error) {
	records, err := s.records.List(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Record returns a single record or ErrNotFound.
func (s *Service) Record(ctx context.Context, id string) (stats.WorkoutRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return stats.WorkoutRecord{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return record, nil
}

// Import decodes a JSON array of records and stores them. Records without an id get a random one and records with
// an existing id replace the stored record.
func (s *Service) Import(ctx context.Context, data []byte) (ImportResult, error) {
	records, err := stats.DecodeRecords(data)
	if err != nil {
		metrics.RecordImportFailure()
		return ImportResult{}, errors.With(fmt.Errorf("%w: %w", ErrInvalidImport, err), slog.Int("bytes", len(data)))
	}
	ids := make([]string, len(records))
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		ids[i] = records[i].ID
	}
	if err = s.records.Upsert(ctx, records); err != nil {
		return ImportResult{}, fmt.Errorf("upsert records: %w", err)
	}
	metrics.RecordImport(len(records))
	s.logger.LogAttrs(ctx, slog.LevelInfo, "imported records", slog.Int("count", len(records)))
	return ImportResult{IDs: ids}, nil
}

// DeleteRecord removes a record or returns ErrNotFound.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// recordsIn loads the records that may fall into window.
func (s *Service) recordsIn(ctx context.Context, window stats.Window) ([]stats.WorkoutRecord, error) {
	since, _ := s.aggregator.Since(window)
	records, err := s.records.List(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func windowLabel(window stats.Window) string {
	if _, ok := window.Days(); ok {
		return "days"
	}
	return "all"
}

// Counts returns the series per canonical group over window.
func (s *Service) Counts(ctx context.Context, window stats.Window) (stats.Counts, error) {
	records, err := s.recordsIn(ctx, window)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	counts := s.aggregator.Aggregate(records, window)
	metrics.ObserveAggregation(windowLabel(window), time.Since(start))
	return counts, nil
}

// Dashboard returns the summary and per group statistics over window.
func (s *Service) Dashboard(ctx context.Context, window stats.Window) (Dashboard, error) {
	records, err := s.recordsIn(ctx, window)
	if err != nil {
		return Dashboard{}, err
	}
	start := time.Now()
	counts := s.aggregator.Aggregate(records, window)
	dashboard := Dashboard{
		Window:  window,
		Summary: s.aggregator.Summarize(records, window),
		Counts:  counts,
		Ranked:  counts.Ranked(),
		Totals:  s.aggregator.GroupTotals(records, window),
	}
	metrics.ObserveAggregation(windowLabel(window), time.Since(start))
	return dashboard, nil
}

// MonthlyReport returns the report of the given month in loc.
func (s *Service) MonthlyReport(ctx context.Context, year int, month time.Month, loc *time.Location) (stats.Report, error) {
	since := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	records, err := s.records.List(ctx, since)
	if err != nil {
		return stats.Report{}, fmt.Errorf("list records: %w", err)
	}
	return s.aggregator.MonthlyReport(records, year, month, loc), nil
}

// Stats returns the count, level and color of every canonical group over window.
func (s *Service) Stats(
	ctx context.Context,
	window stats.Window,
	policy intensity.Policy,
	theme intensity.Theme,
) (StatsView, error) {
	counts, err := s.Counts(ctx, window)
	if err != nil {
		return StatsView{}, err
	}
	maxCount := intensity.MaxOf(counts.Values())
	view := StatsView{
		Window: window.String(),
		Policy: policy.String(),
		Theme:  theme.String(),
		Total:  counts.Total(),
		Groups: make([]GroupStat, 0, len(counts)),
	}
	for _, gc := range counts.Ranked() {
		level := policy.Level(gc.Count, maxCount)
		view.Groups = append(view.Groups, GroupStat{
			Group: gc.Group,
			Count: gc.Count,
			Level: level,
			Color: intensity.ColorOf(level, theme, policy),
		})
	}
	return view, nil
}

// Heatmap aggregates the records in opts.Window and colors the requested body diagram with them.
func (s *Service) Heatmap(ctx context.Context, opts HeatmapOptions) (HeatmapView, error) {
	diagram, err := s.atlas.Diagram(opts.Body, opts.Side)
	if err != nil {
		return HeatmapView{}, fmt.Errorf("diagram: %w", err)
	}
	counts, err := s.Counts(ctx, opts.Window)
	if err != nil {
		return HeatmapView{}, err
	}
	renderer := heatmap.NewRenderer(s.atlas, heatmap.WithPolicy(opts.Policy))
	shapes, err := renderer.Render(opts.Body, opts.Side, heatmap.Input{Counts: counts, Manual: opts.Manual}, opts.Theme)
	if err != nil {
		return HeatmapView{}, fmt.Errorf("render heatmap: %w", err)
	}
	metrics.RecordHeatmapRender(string(opts.Body), string(opts.Side))
	return HeatmapView{
		Diagram: diagram,
		Shapes:  shapes,
		Counts:  counts,
		Legend:  intensity.Ramp(opts.Policy, opts.Theme),
	}, nil
}

// SelectMuscle activates the muscle region muscleID and passes the resulting selection to onSelect. It reports
// false without calling onSelect when the atlas has no such region.
func (s *Service) SelectMuscle(muscleID string, onSelect func(heatmap.Selection)) bool {
	return heatmap.NewRenderer(s.atlas, heatmap.WithSelectHandler(onSelect)).Activate(muscleID)
}

// MuscleGroup returns the canonical group of a muscle region.
func (s *Service) MuscleGroup(muscleID string) (muscle.Group, bool) {
	return s.atlas.Group(muscleID)
}
