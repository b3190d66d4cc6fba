package stats

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/myrjola/gymstats/internal/muscle"
)

// Counts is the number of series per canonical muscle group.
type Counts map[muscle.Group]int

// NewCounts returns Counts with every canonical group set to zero.
func NewCounts() Counts {
	counts := make(Counts, len(muscle.Groups()))
	for _, g := range muscle.Groups() {
		counts[g] = 0
	}
	return counts
}

// Values returns the counts in canonical group order.
func (c Counts) Values() []int {
	groups := muscle.Groups()
	values := make([]int, len(groups))
	for i, g := range groups {
		values[i] = c[g]
	}
	return values
}

// Max returns the largest count or zero for empty counts.
func (c Counts) Max() int {
	m := 0
	for _, n := range c {
		m = max(m, n)
	}
	return m
}

// Total returns the sum of all counts.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total = addSat(total, max(n, 0))
	}
	return total
}

// GroupCount is a single entry of ranked counts.
type GroupCount struct {
	Group muscle.Group
	Count int
}

// Ranked orders the counts by descending count. Ties are broken by the Spanish collation order of the group names.
func (c Counts) Ranked() []GroupCount {
	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(language.Spanish)
	ranked := make([]GroupCount, 0, len(c))
	for g, n := range c {
		ranked = append(ranked, GroupCount{Group: g, Count: n})
	}
	slices.SortFunc(ranked, func(a, b GroupCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return col.CompareString(string(a.Group), string(b.Group))
	})
	return ranked
}

// Top returns at most n ranked groups with a non-zero count.
func (c Counts) Top(n int) []GroupCount {
	top := make([]GroupCount, 0, n)
	for _, gc := range c.Ranked() {
		if len(top) == n || gc.Count == 0 {
			break
		}
		top = append(top, gc)
	}
	return top
}
