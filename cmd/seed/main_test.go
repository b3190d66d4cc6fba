package main

import (
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/gymstats/internal/stats"
)

func Test_generateRecords(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	records := generateRecords(rand.New(rand.NewPCG(1, 2)), 20, now)
	if len(records) != 20 {
		t.Fatalf("generated %d records, want 20", len(records))
	}
	again := generateRecords(rand.New(rand.NewPCG(1, 2)), 20, now)
	if diff := cmp.Diff(records, again); diff != "" {
		t.Errorf("same seed generated different records (-first +second):\n%s", diff)
	}

	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("Failed to marshal records: %v", err)
	}
	decoded, err := stats.DecodeRecords(data)
	if err != nil {
		t.Fatalf("Failed to decode generated records: %v", err)
	}
	var legacy int
	for i, r := range decoded {
		if r.CompletedAt.After(now) || r.CompletedAt.Before(now.AddDate(0, 0, -historyDays)) {
			t.Errorf("record %d completed at %v, outside the history", i, r.CompletedAt)
		}
		if r.Series <= 0 {
			t.Errorf("record %d has no series", i)
		}
		if _, ok := r.Payload.(stats.GroupCountMap); ok {
			legacy++
		}
	}
	if want := 20 / legacyShare; legacy != want {
		t.Errorf("legacy records = %d, want %d", legacy, want)
	}
}

func Test_run_usage(t *testing.T) {
	for _, args := range [][]string{{"seed"}, {"seed", "localhost:1", "many"}, {"seed", "localhost:1", "0"}} {
		if err := run(t.Context(), nil, args); err == nil {
			t.Errorf("run(%v) succeeded, want usage error", args)
		}
	}
}
