package workout

import (
	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/heatmap"
	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/muscle"
	"github.com/myrjola/gymstats/internal/stats"
)

var (
	ErrNotFound      = errors.NewSentinel("not found")
	ErrInvalidImport = errors.NewSentinel("invalid import")
)

// Dashboard is the overview of the workouts in a window.
type Dashboard struct {
	Window  stats.Window
	Summary stats.Summary
	Counts  stats.Counts
	// Ranked lists every canonical group by descending series count.
	Ranked []stats.GroupCount
	Totals map[muscle.Group]stats.Totals
}

// ImportResult describes a successful import.
type ImportResult struct {
	// IDs are the ids of the stored records in input order, including generated ones.
	IDs []string
}

// StatsView is the per group breakdown served by the stats API.
type StatsView struct {
	Window string      `json:"window"`
	Policy string      `json:"policy"`
	Theme  string      `json:"theme"`
	Total  int         `json:"total"`
	Groups []GroupStat `json:"groups"`
}

type GroupStat struct {
	Group muscle.Group    `json:"group"`
	Count int             `json:"count"`
	Level intensity.Level `json:"level"`
	Color intensity.Color `json:"color"`
}

// HeatmapOptions selects the diagram and how it is colored.
type HeatmapOptions struct {
	Window stats.Window
	Body   heatmap.BodyType
	Side   heatmap.Side
	Theme  intensity.Theme
	Policy intensity.Policy
	// Manual levels per muscle-id override the computed ones.
	Manual map[string]intensity.Level
}

type HeatmapView struct {
	Diagram heatmap.Diagram
	Shapes  []heatmap.Shape
	Counts  stats.Counts
	Legend  [intensity.LevelMax + 1]intensity.Color
}
