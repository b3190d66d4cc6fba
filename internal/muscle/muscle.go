// Package muscle defines the canonical muscle groups used for aggregation and resolves the raw, bilingual labels
// attached to logged exercises into them.
package muscle

import (
	"errors"
	"fmt"
)

// Group is a canonical, language-neutral muscle group.
type Group string

const (
	Chest      Group = "Pecho"
	Back       Group = "Espalda"
	Shoulders  Group = "Hombros"
	Biceps     Group = "Bíceps"
	Triceps    Group = "Tríceps"
	Quadriceps Group = "Cuádriceps"
	Hamstrings Group = "Femoral"
	Glutes     Group = "Glúteos"
	Calves     Group = "Gemelos"
	Abdomen    Group = "Abdomen"
	Forearms   Group = "Antebrazos"
	Obliques   Group = "Oblicuos"
)

// Groups returns the closed set of canonical groups in display order.
func Groups() []Group {
	return []Group{
		Chest, Back, Shoulders, Biceps, Triceps, Quadriceps,
		Hamstrings, Glutes, Calves, Abdomen, Forearms, Obliques,
	}
}

// IsCanonical reports whether g is one of the canonical groups.
func IsCanonical(g Group) bool {
	for _, c := range Groups() {
		if c == g {
			return true
		}
	}
	return false
}

// AliasTable maps every canonical group to the raw labels accepted for it.
type AliasTable map[Group][]string

// DefaultAliases returns the Spanish and English labels the application accepts.
func DefaultAliases() AliasTable {
	return AliasTable{
		Chest:      {"Pecho", "Pectoral", "Pectorales", "Chest", "Pecs"},
		Back:       {"Espalda", "Dorsal", "Dorsales", "Trapecio", "Lumbar", "Back", "Lats", "Upper Back", "Lower Back", "Traps"},
		Shoulders:  {"Hombros", "Hombro", "Deltoides", "Shoulders", "Shoulder", "Delts"},
		Biceps:     {"Bíceps", "Biceps", "Bicep"},
		Triceps:    {"Tríceps", "Triceps", "Tricep"},
		Quadriceps: {"Cuádriceps", "Cuadriceps", "Quadriceps", "Quads", "Quad"},
		Hamstrings: {"Femoral", "Femorales", "Isquiotibiales", "Hamstrings", "Hamstring"},
		Glutes:     {"Glúteos", "Gluteos", "Glúteo", "Glutes", "Glute"},
		Calves:     {"Gemelos", "Pantorrillas", "Calves", "Calf"},
		Abdomen:    {"Abdomen", "Abdominales", "Abs", "Core"},
		Forearms:   {"Antebrazos", "Antebrazo", "Forearms", "Forearm"},
		Obliques:   {"Oblicuos", "Oblicuo", "Obliques", "Oblique"},
	}
}

var (
	ErrAmbiguousAlias = errors.New("alias belongs to more than one group")
	ErrUnknownGroup   = errors.New("unknown canonical group")
)

// Resolver resolves raw labels into canonical groups. It is immutable and safe for concurrent use.
type Resolver struct {
	index map[string]Group
}

// NewResolver indexes table. Every group in the table must be canonical and no label may belong to two groups.
func NewResolver(table AliasTable) (*Resolver, error) {
	index := make(map[string]Group)
	for group, aliases := range table {
		if !IsCanonical(group) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
		}
		for _, alias := range aliases {
			if other, ok := index[alias]; ok && other != group {
				return nil, fmt.Errorf("%w: %q in %q and %q", ErrAmbiguousAlias, alias, other, group)
			}
			index[alias] = group
		}
	}
	return &Resolver{index: index}, nil
}

// MustNewResolver is like NewResolver but panics on an invalid table. Use it for static tables only.
func MustNewResolver(table AliasTable) *Resolver {
	r, err := NewResolver(table)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the canonical group for raw using exact, case-sensitive matching.
func (r *Resolver) Resolve(raw string) (Group, bool) {
	if raw == "" {
		return "", false
	}
	g, ok := r.index[raw]
	return g, ok
}

// ResolveCanonical matches raw against the canonical group names only.
func (r *Resolver) ResolveCanonical(raw string) (Group, bool) {
	g := Group(raw)
	if !IsCanonical(g) {
		return "", false
	}
	return g, true
}
