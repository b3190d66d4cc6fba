// Package heatmap renders muscle group intensities onto front and back body diagrams.
package heatmap

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/myrjola/gymstats/internal/muscle"
)

//go:embed atlas.json
var atlasFS embed.FS

// BodyType selects the body silhouette.
type BodyType string

const (
	Male   BodyType = "male"
	Female BodyType = "female"
)

// Side selects the view of the body.
type Side string

const (
	Front Side = "front"
	Back  Side = "back"
)

var (
	ErrUnknownDiagram = errors.New("unknown body diagram")
	ErrInvalidAtlas   = errors.New("invalid atlas")
)

// ParseBodyType parses "male" or "female".
func ParseBodyType(s string) (BodyType, error) {
	switch b := BodyType(s); b {
	case Male, Female:
		return b, nil
	default:
		return Male, fmt.Errorf("%w: body type %q", ErrUnknownDiagram, s)
	}
}

// ParseSide parses "front" or "back".
func ParseSide(s string) (Side, error) {
	switch side := Side(s); side {
	case Front, Back:
		return side, nil
	default:
		return Front, fmt.Errorf("%w: side %q", ErrUnknownDiagram, s)
	}
}

// Region is a drawable muscle region of a diagram.
type Region struct {
	MuscleID string
	Group    muscle.Group
	// Paths are SVG path descriptors drawn in order.
	Paths []string
}

// Diagram is the static geometry of one body type seen from one side.
type Diagram struct {
	Body    BodyType
	Side    Side
	ViewBox string
	// Outline are the non-interactive silhouette paths drawn below the regions.
	Outline []string
	Regions []Region
}

type diagramKey struct {
	body BodyType
	side Side
}

// Atlas holds every body diagram together with the muscle-id to group table. It is immutable after loading.
type Atlas struct {
	diagrams map[diagramKey]Diagram
	groups   map[string]muscle.Group
}

type atlasFile struct {
	Muscles  map[string]muscle.Group `json:"muscles"`
	Diagrams []struct {
		Body    BodyType `json:"body"`
		Side    Side     `json:"side"`
		ViewBox string   `json:"viewBox"`
		Outline []string `json:"outline"`
		Regions []struct {
			ID    string   `json:"id"`
			Paths []string `json:"paths"`
		} `json:"regions"`
	} `json:"diagrams"`
}

// LoadAtlas reads and validates the JSON atlas name from fsys.
func LoadAtlas(fsys fs.FS, name string) (*Atlas, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read atlas %s: %w", name, err)
	}
	var file atlasFile
	if err = json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidAtlas, name, err)
	}

	for id, group := range file.Muscles {
		if !muscle.IsCanonical(group) {
			return nil, fmt.Errorf("%w: muscle %s maps to non-canonical group %q", ErrInvalidAtlas, id, group)
		}
	}

	atlas := &Atlas{
		diagrams: make(map[diagramKey]Diagram, len(file.Diagrams)),
		groups:   file.Muscles,
	}
	for _, d := range file.Diagrams {
		key := diagramKey{body: d.Body, side: d.Side}
		if _, ok := atlas.diagrams[key]; ok {
			return nil, fmt.Errorf("%w: duplicate diagram %s/%s", ErrInvalidAtlas, d.Body, d.Side)
		}
		if d.ViewBox == "" {
			return nil, fmt.Errorf("%w: diagram %s/%s has no view box", ErrInvalidAtlas, d.Body, d.Side)
		}
		diagram := Diagram{
			Body:    d.Body,
			Side:    d.Side,
			ViewBox: d.ViewBox,
			Outline: d.Outline,
			Regions: make([]Region, 0, len(d.Regions)),
		}
		for _, r := range d.Regions {
			group, ok := file.Muscles[r.ID]
			if !ok {
				return nil, fmt.Errorf("%w: region %s in %s/%s has no muscle group", ErrInvalidAtlas, r.ID, d.Body, d.Side)
			}
			diagram.Regions = append(diagram.Regions, Region{MuscleID: r.ID, Group: group, Paths: r.Paths})
		}
		atlas.diagrams[key] = diagram
	}
	return atlas, nil
}

//nolint:gochecknoglobals // the embedded atlas is parsed once.
var defaultAtlas = sync.OnceValues(func() (*Atlas, error) {
	return LoadAtlas(atlasFS, "atlas.json")
})

// DefaultAtlas returns the embedded atlas with male and female front and back diagrams.
func DefaultAtlas() (*Atlas, error) {
	return defaultAtlas()
}

// Diagram returns the diagram for body and side.
func (a *Atlas) Diagram(body BodyType, side Side) (Diagram, error) {
	d, ok := a.diagrams[diagramKey{body: body, side: side}]
	if !ok {
		return Diagram{}, fmt.Errorf("%w: %s/%s", ErrUnknownDiagram, body, side)
	}
	return d, nil
}

// Group returns the muscle group of a muscle-id.
func (a *Atlas) Group(muscleID string) (muscle.Group, bool) {
	g, ok := a.groups[muscleID]
	return g, ok
}
