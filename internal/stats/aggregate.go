package stats

import (
	"fmt"
	"iter"
	"time"

	"github.com/myrjola/gymstats/internal/muscle"
)

// Window selects the records that take part in an aggregation by completion time.
type Window struct {
	days int
}

// AllTime includes every record, including those without a completion time.
var AllTime = Window{days: 0} //nolint:gochecknoglobals // immutable value.

// LastDays includes records completed within n days before now. Non-positive n means AllTime.
func LastDays(n int) Window {
	if n <= 0 {
		return AllTime
	}
	return Window{days: n}
}

// Days returns the window length and false for AllTime.
func (w Window) Days() (int, bool) {
	return w.days, w.days > 0
}

func (w Window) String() string {
	if w.days <= 0 {
		return "all time"
	}
	return fmt.Sprintf("last %d days", w.days)
}

// contains reports whether completedAt lies in [now-days, now).
func (w Window) contains(completedAt, now time.Time) bool {
	if w.days <= 0 {
		return true
	}
	if completedAt.IsZero() {
		return false
	}
	from := now.Add(-time.Duration(w.days) * 24 * time.Hour)
	return !completedAt.Before(from) && completedAt.Before(now)
}

// Aggregator folds workout records into per group statistics.
//
// It keeps no state between calls and is safe for concurrent use.
type Aggregator struct {
	resolver *muscle.Resolver
	now      func() time.Time
}

type Option func(*Aggregator)

// WithClock overrides the clock used to evaluate windows.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

func NewAggregator(resolver *muscle.Resolver, opts ...Option) *Aggregator {
	a := &Aggregator{
		resolver: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Since returns the earliest completion time window includes right now. It returns false for AllTime.
func (a *Aggregator) Since(window Window) (time.Time, bool) {
	days, ok := window.Days()
	if !ok {
		return time.Time{}, false
	}
	return a.now().Add(-time.Duration(days) * 24 * time.Hour), true
}

// within yields the records in the window. The clock is read once per call.
func (a *Aggregator) within(records []WorkoutRecord, window Window) iter.Seq[WorkoutRecord] {
	now := a.now()
	return func(yield func(WorkoutRecord) bool) {
		for _, r := range records {
			if !window.contains(r.CompletedAt, now) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Aggregate sums the series per canonical group over the records in window.
//
// Unresolvable labels are ignored and negative series count as zero. The result always has every canonical group.
func (a *Aggregator) Aggregate(records []WorkoutRecord, window Window) Counts {
	counts := NewCounts()
	for r := range a.within(records, window) {
		if r.Payload == nil {
			continue
		}
		for group, detail := range r.Payload.contributions(a.resolver) {
			counts[group] = addSat(counts[group], max(detail.Series, 0))
		}
	}
	return counts
}

// Totals is the training volume of one muscle group.
type Totals struct {
	Series int
	Reps   int
	// Volume is the sum of series × reps × weight.
	Volume float64
}

// GroupTotals sums series, reps and volume per canonical group over the records in window.
//
// Legacy records only contribute series since they carry neither reps nor weights.
func (a *Aggregator) GroupTotals(records []WorkoutRecord, window Window) map[muscle.Group]Totals {
	totals := make(map[muscle.Group]Totals, len(muscle.Groups()))
	for _, g := range muscle.Groups() {
		totals[g] = Totals{Series: 0, Reps: 0, Volume: 0}
	}
	for r := range a.within(records, window) {
		if r.Payload == nil {
			continue
		}
		for group, detail := range r.Payload.contributions(a.resolver) {
			series := max(detail.Series, 0)
			reps := mulSat(series, max(detail.Reps, 0))
			t := totals[group]
			t.Series = addSat(t.Series, series)
			t.Reps = addSat(t.Reps, reps)
			t.Volume += float64(reps) * max(detail.Weight, 0)
			totals[group] = t
		}
	}
	return totals
}

// Summary is the overall training volume of a set of workouts.
type Summary struct {
	Workouts int
	Series   int
	Reps     int
	Volume   float64
	Elapsed  time.Duration
}

// Summarize totals the records in window. Totals missing from a record are derived from its exercise details.
func (a *Aggregator) Summarize(records []WorkoutRecord, window Window) Summary {
	var s Summary
	for r := range a.within(records, window) {
		series, reps, volume := r.Series, r.TotalReps, r.TotalVolume
		derivedSeries, derivedReps, derivedVolume := derive(r.Payload)
		if series <= 0 {
			series = derivedSeries
		}
		if reps <= 0 {
			reps = derivedReps
		}
		if volume <= 0 {
			volume = derivedVolume
		}
		s.Workouts++
		s.Series = addSat(s.Series, max(series, 0))
		s.Reps = addSat(s.Reps, max(reps, 0))
		s.Volume += volume
		s.Elapsed += max(r.ElapsedTime, 0)
	}
	return s
}

// derive computes totals from a payload without resolving groups so that unlabelled exercises still count.
func derive(p Payload) (int, int, float64) {
	var (
		series int
		reps   int
		volume float64
	)
	switch p := p.(type) {
	case DetailList:
		for _, d := range p {
			s := max(d.Series, 0)
			r := mulSat(s, max(d.Reps, 0))
			series = addSat(series, s)
			reps = addSat(reps, r)
			volume += float64(r) * max(d.Weight, 0)
		}
	case GroupCountMap:
		for _, n := range p {
			series = addSat(series, max(n, 0))
		}
	}
	return series, reps, volume
}
