package heatmap

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/muscle"
	"github.com/myrjola/gymstats/internal/stats"
)

// Input is what the renderer colors the diagram by.
type Input struct {
	Counts stats.Counts
	// Manual levels per muscle-id take precedence over the levels computed from Counts.
	Manual map[string]intensity.Level
}

// Shape is one drawable path of a muscle region.
type Shape struct {
	MuscleID string
	Group    muscle.Group
	Path     string
	Level    intensity.Level
	Fill     intensity.Color
	// Target identifies the shape when it is clicked.
	Target string
}

// Selection is emitted when a muscle region is activated.
type Selection struct {
	MuscleID string
	Group    muscle.Group
}

// Renderer computes the colored shapes of a diagram. It is safe for concurrent use.
type Renderer struct {
	atlas    *Atlas
	policy   intensity.Policy
	onSelect func(Selection)
}

type Option func(*Renderer)

// WithPolicy sets the policy used to compute levels from counts. Defaults to intensity.Relative.
func WithPolicy(p intensity.Policy) Option {
	return func(r *Renderer) {
		r.policy = p
	}
}

// WithSelectHandler registers fn to receive selection events from Activate.
func WithSelectHandler(fn func(Selection)) Option {
	return func(r *Renderer) {
		r.onSelect = fn
	}
}

func NewRenderer(atlas *Atlas, opts ...Option) *Renderer {
	r := &Renderer{
		atlas:    atlas,
		policy:   intensity.Relative,
		onSelect: nil,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the configured intensity policy.
func (r *Renderer) Policy() intensity.Policy {
	return r.policy
}

// Render returns one shape per path of the diagram in drawing order.
func (r *Renderer) Render(body BodyType, side Side, in Input, theme intensity.Theme) ([]Shape, error) {
	diagram, err := r.atlas.Diagram(body, side)
	if err != nil {
		return nil, err
	}
	maxCount := intensity.MaxOf(in.Counts.Values())

	var shapes []Shape
	for _, region := range diagram.Regions {
		level, ok := in.Manual[region.MuscleID]
		if ok {
			level = level.Clamp()
		} else {
			level = r.policy.Level(in.Counts[region.Group], maxCount)
		}
		fill := intensity.ColorOf(level, theme, r.policy)
		for _, path := range region.Paths {
			shapes = append(shapes, Shape{
				MuscleID: region.MuscleID,
				Group:    region.Group,
				Path:     path,
				Level:    level,
				Fill:     fill,
				Target:   region.MuscleID,
			})
		}
	}
	return shapes, nil
}

// Activate emits a selection event for muscleID. Unknown ids are ignored and reported as false.
func (r *Renderer) Activate(muscleID string) bool {
	group, ok := r.atlas.Group(muscleID)
	if !ok {
		return false
	}
	if r.onSelect != nil {
		r.onSelect(Selection{MuscleID: muscleID, Group: group})
	}
	return true
}

// WriteSVG writes a standalone SVG document of the diagram outline and the shapes.
func WriteSVG(w io.Writer, diagram Diagram, shapes []Shape) error {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg version="1.1" xmlns="http://www.w3.org/2000/svg" viewBox="%s" data-body="%s" data-side="%s">`,
		escape(diagram.ViewBox), escape(string(diagram.Body)), escape(string(diagram.Side)))
	b.WriteString("\n")

	b.WriteString(`<g class="outline" fill="none" stroke="#9ca3af" stroke-width="1">` + "\n")
	for _, path := range diagram.Outline {
		fmt.Fprintf(&b, `<path d="%s"/>`+"\n", escape(path))
	}
	b.WriteString("</g>\n")

	b.WriteString(`<g class="muscles" stroke="#ffffff" stroke-width="0.5">` + "\n")
	for _, s := range shapes {
		fmt.Fprintf(&b, `<path d="%s" fill="%s" data-muscle="%s" data-group="%s" data-level="%s"><title>%s</title></path>`+"\n",
			escape(s.Path), escape(string(s.Fill)), escape(s.Target), escape(string(s.Group)),
			strconv.Itoa(int(s.Level)), escape(string(s.Group)))
	}
	b.WriteString("</g>\n</svg>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func escape(s string) string {
	var b strings.Builder
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
