package stats_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/gymstats/internal/stats"
)

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []stats.WorkoutRecord
	}{
		{
			name: "details",
			input: `[{"id":"w1","completedAt":"2026-09-14T18:30:00Z","series":5,"totalReps":50,"totalVolume":1500.5,
				"elapsedTime":3600,"details":[{"name":"Bench press","muscleGroup":"Chest","series":5,"reps":10,"weight":30}]}]`,
			want: []stats.WorkoutRecord{{
				ID:          "w1",
				CompletedAt: time.Date(2026, 9, 14, 18, 30, 0, 0, time.UTC),
				Payload: stats.DetailList{
					{Name: "Bench press", Group: "Chest", Series: 5, Reps: 10, Weight: 30},
				},
				Series:      5,
				TotalReps:   50,
				TotalVolume: 1500.5,
				ElapsedTime: time.Hour,
			}},
		},
		{
			name:  "series by group",
			input: `[{"id":7,"completedAt":"2026-09-01","seriesByGroup":{"Biceps":3,"UnknownGroup":"7"}}]`,
			want: []stats.WorkoutRecord{{
				ID:          "7",
				CompletedAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
				Payload:     stats.GroupCountMap{"Biceps": 3, "UnknownGroup": 7},
			}},
		},
		{
			name:  "group label fallbacks",
			input: `[{"details":[{"group":"Lats","series":2},{"category":"Core","series":1},{"series":4}]}]`,
			want: []stats.WorkoutRecord{{
				Payload: stats.DetailList{
					{Group: "Lats", Series: 2},
					{Group: "Core", Series: 1},
					{Series: 4},
				},
			}},
		},
		{
			name: "malformed numbers coerce to zero",
			input: `[{"series":"abc","totalReps":null,"totalVolume":"12.5","totalTime":"90",
				"details":[{"muscleGroup":"Pecho","series":"3","reps":true,"weight":{}}]}]`,
			want: []stats.WorkoutRecord{{
				Payload:     stats.DetailList{{Group: "Pecho", Series: 3}},
				TotalVolume: 12.5,
				ElapsedTime: 90 * time.Second,
			}},
		},
		{
			name:  "wrong payload shapes are treated as missing",
			input: `[{"details":"nope","seriesByGroup":[1,2]}]`,
			want:  []stats.WorkoutRecord{{}},
		},
		{
			name:  "details take precedence over series by group",
			input: `[{"details":[],"seriesByGroup":{"Pecho":3}}]`,
			want:  []stats.WorkoutRecord{{Payload: stats.DetailList{}}},
		},
		{
			name:  "non-object details are skipped",
			input: `[{"details":[1,"x",{"muscleGroup":"Abs","series":2}]}]`,
			want:  []stats.WorkoutRecord{{Payload: stats.DetailList{{Group: "Abs", Series: 2}}}},
		},
		{
			name:  "epoch milliseconds",
			input: `[{"completedAt":1757961000000}]`,
			want:  []stats.WorkoutRecord{{CompletedAt: time.UnixMilli(1757961000000).UTC()}},
		},
		{
			name:  "unparseable completion time is missing",
			input: `[{"completedAt":"yesterday"},{"completedAt":false}]`,
			want:  []stats.WorkoutRecord{{}, {}},
		},
		{
			name: "completion time without a four digit UTC year is missing",
			input: `[{"completedAt":1000000000000000},{"completedAt":"0000-01-01T00:00:00+01:00"},
				{"completedAt":"9999-12-31T23:00:00-02:00"},{"completedAt":"0000-01-01T00:00:00Z"}]`,
			want: []stats.WorkoutRecord{{}, {}, {}, {CompletedAt: time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)}},
		},
		{
			name: "huge numbers saturate to the int32 range",
			input: `[{"series":1e30,"details":[{"muscleGroup":"Chest","series":5e18},{"muscleGroup":"Chest","series":-1e30}],
				"seriesByGroup":{"Back":1e30}}]`,
			want: []stats.WorkoutRecord{{
				Series: math.MaxInt32,
				Payload: stats.DetailList{
					{Group: "Chest", Series: math.MaxInt32},
					{Group: "Chest", Series: math.MinInt32},
				},
			}},
		},
		{
			name:  "huge series by group saturate",
			input: `[{"seriesByGroup":{"Back":1e30,"Chest":-1e30}}]`,
			want:  []stats.WorkoutRecord{{Payload: stats.GroupCountMap{"Back": math.MaxInt32, "Chest": math.MinInt32}}},
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  []stats.WorkoutRecord{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stats.DecodeRecords([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeRecords() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeRecords() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeRecords_invalid(t *testing.T) {
	inputs := []string{
		`{"id":"w1"}`,
		`[1,2,3]`,
		`["record"]`,
		`not json`,
		``,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if _, err := stats.DecodeRecords([]byte(input)); !errors.Is(err, stats.ErrInvalidRecords) {
				t.Errorf("DecodeRecords(%q) error = %v, want ErrInvalidRecords", input, err)
			}
		})
	}
}

func TestWorkoutRecord_MarshalJSON(t *testing.T) {
	records := []stats.WorkoutRecord{
		{
			ID:          "w1",
			CompletedAt: time.Date(2026, 9, 14, 18, 30, 0, 0, time.UTC),
			Payload:     stats.DetailList{{Name: "Squat", Group: "Quads", Series: 4, Reps: 8, Weight: 100}},
			Series:      4,
			TotalReps:   32,
			TotalVolume: 3200,
			ElapsedTime: 50 * time.Minute,
		},
		{ID: "legacy", Payload: stats.GroupCountMap{"Gemelos": 3}},
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded, err := stats.DecodeRecords(data)
	if err != nil {
		t.Fatalf("DecodeRecords() error = %v", err)
	}
	if diff := cmp.Diff(records, decoded); diff != "" {
		t.Errorf("decoded records mismatch (-want +got):\n%s", diff)
	}
}
