package intensity

import (
	"errors"
	"fmt"
)

// Theme is the color scheme of the user interface.
type Theme int

const (
	Light Theme = iota
	Dark
)

var ErrUnknownTheme = errors.New("unknown theme")

func (t Theme) String() string {
	switch t {
	case Light:
		return "light"
	case Dark:
		return "dark"
	default:
		return fmt.Sprintf("Theme(%d)", int(t))
	}
}

// ParseTheme parses the String form of a theme.
func ParseTheme(s string) (Theme, error) {
	switch s {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	default:
		return Light, fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
}

// Color is a CSS hex color.
type Color string

type paletteKey struct {
	policy Policy
	theme  Theme
}

// palettes holds one color per level. Absolute uses a warm ramp and Relative a cool one so the two are never mixed
// up on screen.
var palettes = map[paletteKey][LevelMax + 1]Color{ //nolint:gochecknoglobals // constant table.
	{Absolute, Light}: {"#e5e7eb", "#fde68a", "#fbbf24", "#f97316", "#dc2626"},
	{Absolute, Dark}:  {"#1f2937", "#78350f", "#b45309", "#f59e0b", "#fde047"},
	{Relative, Light}: {"#e5e7eb", "#bfdbfe", "#60a5fa", "#2563eb", "#1e3a8a"},
	{Relative, Dark}:  {"#1f2937", "#1e3a8a", "#1d4ed8", "#3b82f6", "#93c5fd"},
}

// ColorOf returns the fill color for level. Out of range levels are clamped and unknown policies or themes fall back
// to the relative light palette.
func ColorOf(level Level, theme Theme, p Policy) Color {
	return Ramp(p, theme)[level.Clamp()]
}

// Ramp returns the colors of every level from LevelNone to LevelMax, suitable for a legend.
func Ramp(p Policy, theme Theme) [LevelMax + 1]Color {
	ramp, ok := palettes[paletteKey{policy: p, theme: theme}]
	if !ok {
		ramp = palettes[paletteKey{policy: Relative, theme: Light}]
	}
	return ramp
}
