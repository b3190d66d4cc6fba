// Package stats aggregates completed workouts into per muscle group statistics.
//
// Records are decoded leniently: malformed numbers become zero and unknown muscle group labels are ignored so that
// a single bad record never breaks the statistics of the others.
package stats

import (
	"iter"
	"time"

	"github.com/myrjola/gymstats/internal/muscle"
)

// ExerciseDetail is a single exercise performed during a workout.
type ExerciseDetail struct {
	Name string
	// Group is the raw muscle group label as entered by the user.
	Group  string
	Series int
	Reps   int
	Weight float64
}

// Payload is the per muscle group content of a WorkoutRecord.
//
// It is either a DetailList or a GroupCountMap. Records in the legacy format only stored the series count per
// muscle group while newer records store the full exercise list.
type Payload interface {
	// contributions yields every exercise detail that resolves to a canonical group.
	contributions(r *muscle.Resolver) iter.Seq2[muscle.Group, ExerciseDetail]
}

// DetailList is the ordered list of exercises of a workout.
type DetailList []ExerciseDetail

func (d DetailList) contributions(r *muscle.Resolver) iter.Seq2[muscle.Group, ExerciseDetail] {
	return func(yield func(muscle.Group, ExerciseDetail) bool) {
		for _, detail := range d {
			group, ok := r.Resolve(detail.Group)
			if !ok {
				continue
			}
			if !yield(group, detail) {
				return
			}
		}
	}
}

// GroupCountMap maps raw muscle group labels to series counts.
type GroupCountMap map[string]int

func (m GroupCountMap) contributions(r *muscle.Resolver) iter.Seq2[muscle.Group, ExerciseDetail] {
	return func(yield func(muscle.Group, ExerciseDetail) bool) {
		for raw, count := range m {
			group, ok := r.ResolveCanonical(raw)
			if !ok {
				if group, ok = r.Resolve(raw); !ok {
					continue
				}
			}
			detail := ExerciseDetail{Name: "", Group: raw, Series: count, Reps: 0, Weight: 0}
			if !yield(group, detail) {
				return
			}
		}
	}
}

// WorkoutRecord is a completed workout session.
type WorkoutRecord struct {
	ID string
	// CompletedAt is the zero time when the completion time is unknown.
	CompletedAt time.Time
	// Payload is nil when the record has neither exercise details nor series per group.
	Payload     Payload
	Series      int
	TotalReps   int
	TotalVolume float64
	ElapsedTime time.Duration
}

// Details returns the exercise details of the record or nil for other payloads.
func (r WorkoutRecord) Details() DetailList {
	if d, ok := r.Payload.(DetailList); ok {
		return d
	}
	return nil
}

// SeriesByGroup returns the legacy series per group map of the record or nil for other payloads.
func (r WorkoutRecord) SeriesByGroup() GroupCountMap {
	if m, ok := r.Payload.(GroupCountMap); ok {
		return m
	}
	return nil
}
