package workout_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/gymstats/internal/heatmap"
	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/muscle"
	"github.com/myrjola/gymstats/internal/sqlite"
	"github.com/myrjola/gymstats/internal/stats"
	"github.com/myrjola/gymstats/internal/testhelpers"
	"github.com/myrjola/gymstats/internal/workout"
)

var now = time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // fixed test clock.

func newTestService(t *testing.T) *workout.Service {
	t.Helper()
	ctx := t.Context()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	// Start from an empty store.
	if _, err = db.ReadWrite.ExecContext(ctx, "DELETE FROM workout_records"); err != nil {
		t.Fatalf("Failed to clear fixtures: %v", err)
	}
	aggregator := stats.NewAggregator(
		muscle.MustNewResolver(muscle.DefaultAliases()),
		stats.WithClock(func() time.Time { return now }),
	)
	atlas, err := heatmap.DefaultAtlas()
	if err != nil {
		t.Fatalf("Failed to load atlas: %v", err)
	}
	return workout.NewService(db, logger, aggregator, atlas)
}

func Test_Import_RoundTrip(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	result, err := svc.Import(ctx, []byte(`[
		{"id":"w1","completedAt":"2026-09-14T18:30:00Z","series":5,"totalReps":50,"totalVolume":1500,"elapsedTime":3600,
		 "details":[{"name":"Bench press","muscleGroup":"Chest","series":3,"reps":10,"weight":50},
		            {"name":"Fly","muscleGroup":"Pecho","series":2,"reps":10,"weight":0}]},
		{"completedAt":"2026-09-10","seriesByGroup":{"Biceps":3,"UnknownGroup":7}},
		{"id":"empty"}
	]`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(result.IDs) != 3 || result.IDs[0] != "w1" || result.IDs[1] == "" || result.IDs[2] != "empty" {
		t.Fatalf("Import() ids = %v", result.IDs)
	}

	got, err := svc.Record(ctx, "w1")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	want := stats.WorkoutRecord{
		ID:          "w1",
		CompletedAt: time.Date(2026, 9, 14, 18, 30, 0, 0, time.UTC),
		Payload: stats.DetailList{
			{Name: "Bench press", Group: "Chest", Series: 3, Reps: 10, Weight: 50},
			{Name: "Fly", Group: "Pecho", Series: 2, Reps: 10, Weight: 0},
		},
		Series:      5,
		TotalReps:   50,
		TotalVolume: 1500,
		ElapsedTime: time.Hour,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Record() mismatch (-want +got):\n%s", diff)
	}

	legacy, err := svc.Record(ctx, result.IDs[1])
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if diff := cmp.Diff(stats.GroupCountMap{"Biceps": 3, "UnknownGroup": 7}, legacy.Payload); diff != "" {
		t.Errorf("legacy payload mismatch (-want +got):\n%s", diff)
	}

	empty, err := svc.Record(ctx, "empty")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if empty.Payload != nil || !empty.CompletedAt.IsZero() {
		t.Errorf("empty record = %+v", empty)
	}

	records, err := svc.Records(ctx)
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(records) != 3 || records[0].ID != "w1" || records[2].ID != "empty" {
		t.Errorf("Records() order = %v", recordIDs(records))
	}
}

func Test_Import_ReplacesExistingRecord(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)

	if _, err := svc.Import(ctx, []byte(`[{"id":"w1","completedAt":"2026-09-14","seriesByGroup":{"Pecho":4}}]`)); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	if _, err := svc.Import(ctx, []byte(`[{"id":"w1","completedAt":"2026-09-14","details":[{"muscleGroup":"Back","series":2}]}]`)); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}

	counts, err := svc.Counts(ctx, stats.AllTime)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts[muscle.Chest] != 0 || counts[muscle.Back] != 2 {
		t.Errorf("Counts() = %v, want only the replacement", counts)
	}
}

func Test_Import_OutOfRangeCompletionTimes(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)
	result, err := svc.Import(ctx, []byte(`[
		{"id":"ok","completedAt":"2026-09-14","details":[{"muscleGroup":"Chest","series":5}]},
		{"id":"far","completedAt":1000000000000000,"details":[{"muscleGroup":"Chest","series":2}]},
		{"id":"early","completedAt":"0000-01-01T00:00:00+01:00","seriesByGroup":{"Glutes":3}}
	]`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if diff := cmp.Diff([]string{"ok", "far", "early"}, result.IDs); diff != "" {
		t.Errorf("Import() ids mismatch (-want +got):\n%s", diff)
	}

	far, err := svc.Record(ctx, "far")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !far.CompletedAt.IsZero() {
		t.Errorf("far CompletedAt = %v, want missing", far.CompletedAt)
	}

	counts, err := svc.Counts(ctx, stats.AllTime)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts[muscle.Chest] != 7 || counts[muscle.Glutes] != 3 {
		t.Errorf("Counts() = %v, want every record stored", counts)
	}
	windowed, err := svc.Counts(ctx, stats.LastDays(30))
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if windowed[muscle.Chest] != 5 {
		t.Errorf("30 day chest = %d, want only the dated record", windowed[muscle.Chest])
	}
}

func Test_Import_Invalid(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Import(t.Context(), []byte(`{"id":"not an array"}`))
	if !errors.Is(err, workout.ErrInvalidImport) || !errors.Is(err, stats.ErrInvalidRecords) {
		t.Errorf("Import() error = %v, want ErrInvalidImport", err)
	}
}

func Test_Counts_Window(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)
	_, err := svc.Import(ctx, []byte(`[
		{"id":"recent","completedAt":"2026-09-10T10:00:00Z","seriesByGroup":{"Glutes":5}},
		{"id":"old","completedAt":"2026-08-06T10:00:00Z","seriesByGroup":{"Glutes":8}},
		{"id":"unknown-time","seriesByGroup":{"Glutes":1}}
	]`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	windowed, err := svc.Counts(ctx, stats.LastDays(30))
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if windowed[muscle.Glutes] != 5 {
		t.Errorf("30 day glutes = %d, want 5", windowed[muscle.Glutes])
	}

	all, err := svc.Counts(ctx, stats.AllTime)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if all[muscle.Glutes] != 14 {
		t.Errorf("all time glutes = %d, want 14", all[muscle.Glutes])
	}
}

func Test_Dashboard(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)
	_, err := svc.Import(ctx, []byte(`[
		{"id":"a","completedAt":"2026-09-12T10:00:00Z","elapsedTime":1800,
		 "details":[{"muscleGroup":"Quads","series":4,"reps":8,"weight":100},{"muscleGroup":"Calves","series":2,"reps":15,"weight":20}]}
	]`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	dashboard, err := svc.Dashboard(ctx, stats.LastDays(7))
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	wantSummary := stats.Summary{Workouts: 1, Series: 6, Reps: 62, Volume: 3800, Elapsed: 30 * time.Minute}
	if diff := cmp.Diff(wantSummary, dashboard.Summary); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
	if dashboard.Ranked[0].Group != muscle.Quadriceps || dashboard.Ranked[1].Group != muscle.Calves {
		t.Errorf("Ranked = %v", dashboard.Ranked[:2])
	}
	if dashboard.Totals[muscle.Quadriceps].Volume != 3200 {
		t.Errorf("quadriceps volume = %v", dashboard.Totals[muscle.Quadriceps].Volume)
	}
}

func Test_MonthlyReport(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)
	_, err := svc.Import(ctx, []byte(`[
		{"id":"aug","completedAt":"2026-08-20T10:00:00Z","seriesByGroup":{"Pecho":3}},
		{"id":"sep","completedAt":"2026-09-02T10:00:00Z","seriesByGroup":{"Pecho":5}}
	]`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	report, err := svc.MonthlyReport(ctx, 2026, time.August, time.UTC)
	if err != nil {
		t.Fatalf("MonthlyReport() error = %v", err)
	}
	if report.Summary.Workouts != 1 || report.Counts[muscle.Chest] != 3 {
		t.Errorf("report = %+v", report)
	}
}

func Test_DeleteRecord(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)
	if _, err := svc.Import(ctx, []byte(`[{"id":"w1","details":[{"muscleGroup":"Abs","series":1}]}]`)); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if err := svc.DeleteRecord(ctx, "w1"); err != nil {
		t.Fatalf("DeleteRecord() error = %v", err)
	}
	if _, err := svc.Record(ctx, "w1"); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("Record() after delete error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteRecord(ctx, "w1"); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("second DeleteRecord() error = %v, want ErrNotFound", err)
	}
}

func Test_Stats(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)
	_, err := svc.Import(ctx, []byte(`[
		{"id":"a","completedAt":"2026-09-14T10:00:00Z","seriesByGroup":{"Chest":8,"Biceps":2}}
	]`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	view, err := svc.Stats(ctx, stats.LastDays(30), intensity.Relative, intensity.Dark)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if view.Window != "last 30 days" || view.Policy != "relative" || view.Theme != "dark" || view.Total != 10 {
		t.Errorf("Stats() header = %+v", view)
	}
	if len(view.Groups) != len(muscle.Groups()) {
		t.Fatalf("Stats() groups = %d, want %d", len(view.Groups), len(muscle.Groups()))
	}
	want := []workout.GroupStat{
		{Group: muscle.Chest, Count: 8, Level: 4, Color: intensity.ColorOf(4, intensity.Dark, intensity.Relative)},
		{Group: muscle.Biceps, Count: 2, Level: 1, Color: intensity.ColorOf(1, intensity.Dark, intensity.Relative)},
	}
	if diff := cmp.Diff(want, view.Groups[:2]); diff != "" {
		t.Errorf("Stats() groups mismatch (-want +got):\n%s", diff)
	}
	if last := view.Groups[len(view.Groups)-1]; last.Count != 0 || last.Level != intensity.LevelNone {
		t.Errorf("last group = %+v, want an untrained group", last)
	}
}

func Test_Heatmap(t *testing.T) {
	ctx := t.Context()
	svc := newTestService(t)
	_, err := svc.Import(ctx, []byte(`[
		{"id":"a","completedAt":"2026-09-14T10:00:00Z","seriesByGroup":{"Pecho":10,"Hombros":5}}
	]`))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	view, err := svc.Heatmap(ctx, workout.HeatmapOptions{
		Window: stats.AllTime,
		Body:   heatmap.Male,
		Side:   heatmap.Front,
		Theme:  intensity.Light,
		Policy: intensity.Absolute,
		Manual: map[string]intensity.Level{"abs": 3},
	})
	if err != nil {
		t.Fatalf("Heatmap() error = %v", err)
	}
	levels := make(map[string]intensity.Level)
	for _, s := range view.Shapes {
		levels[s.MuscleID] = s.Level
	}
	want := map[string]intensity.Level{"chest-left": 4, "deltoid-front-right": 2, "abs": 3, "quad-left": 0}
	for id, level := range want {
		if levels[id] != level {
			t.Errorf("level of %s = %d, want %d", id, levels[id], level)
		}
	}
	if view.Legend != intensity.Ramp(intensity.Absolute, intensity.Light) {
		t.Errorf("Legend = %v", view.Legend)
	}

	_, err = svc.Heatmap(ctx, workout.HeatmapOptions{Body: "robot", Side: heatmap.Front})
	if !errors.Is(err, heatmap.ErrUnknownDiagram) {
		t.Errorf("Heatmap() unknown body error = %v, want ErrUnknownDiagram", err)
	}
}

func Test_SelectMuscle(t *testing.T) {
	svc := newTestService(t)
	var got []heatmap.Selection
	onSelect := func(s heatmap.Selection) {
		got = append(got, s)
	}
	if !svc.SelectMuscle("hamstring-left", onSelect) {
		t.Error("SelectMuscle() = false for a known region")
	}
	if svc.SelectMuscle("tail", onSelect) {
		t.Error("SelectMuscle() = true for an unknown region")
	}
	if diff := cmp.Diff([]heatmap.Selection{{MuscleID: "hamstring-left", Group: muscle.Hamstrings}}, got); diff != "" {
		t.Errorf("selections mismatch (-want +got):\n%s", diff)
	}
}

func recordIDs(records []stats.WorkoutRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
