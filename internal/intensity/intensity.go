// Package intensity maps series counts to discrete intensity levels and levels to display colors.
//
// Levels are computed without any knowledge of themes. Colors are looked up from a separate palette keyed by policy,
// theme and level.
package intensity

import (
	"errors"
	"fmt"
)

// Level is a discrete intensity between LevelNone and LevelMax.
type Level int

const (
	LevelNone Level = 0
	LevelMax  Level = 4
)

// Clamp limits l to [LevelNone, LevelMax].
func (l Level) Clamp() Level {
	return min(max(l, LevelNone), LevelMax)
}

// Policy decides how a count is mapped to a level.
type Policy int

const (
	// Relative scales counts against the largest count of the group set.
	Relative Policy = iota
	// Absolute uses fixed series thresholds.
	Absolute
)

var ErrUnknownPolicy = errors.New("unknown intensity policy")

func (p Policy) String() string {
	switch p {
	case Absolute:
		return "absolute"
	case Relative:
		return "relative"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses the String form of a policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "absolute":
		return Absolute, nil
	case "relative":
		return Relative, nil
	default:
		return Relative, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// absoluteThresholds are the minimum series counts for levels 4 down to 1.
var absoluteThresholds = [...]int{10, 6, 3, 1} //nolint:gochecknoglobals // constant table.

// Level maps count to a level. maxCount is the largest count of the group set and only used by Relative.
func (p Policy) Level(count, maxCount int) Level {
	if count <= 0 {
		return LevelNone
	}
	if p == Absolute {
		for i, threshold := range absoluteThresholds {
			if count >= threshold {
				return LevelMax - Level(i)
			}
		}
		return LevelNone
	}

	ratio := float64(count) / float64(max(maxCount, 1))
	switch {
	case ratio <= 0.25:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.75:
		return 3
	default:
		return LevelMax
	}
}

// MaxOf returns the largest count or zero for no counts.
func MaxOf(counts []int) int {
	m := 0
	for _, c := range counts {
		m = max(m, c)
	}
	return m
}

// Of maps count to a level relative to all, the counts of every group in the set.
func Of(count int, all []int, p Policy) Level {
	return p.Level(count, MaxOf(all))
}
