package main

import (
	"context"
	"encoding/gob"
	"maps"

	"github.com/myrjola/gymstats/internal/heatmap"
	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/stats"
)

const uiStateSessionKey = "uiState"

// uiState is everything the user has chosen in the interface. It is stored in the session.
type uiState struct {
	Theme      intensity.Theme
	Body       heatmap.BodyType
	Side       heatmap.Side
	Policy     intensity.Policy
	WindowDays int
	// Manual holds the manual intensity overrides per muscle-id.
	Manual map[string]intensity.Level
}

//nolint:gochecknoinits // the session codec needs to know the concrete type.
func init() {
	gob.Register(uiState{}) //nolint:exhaustruct // only the type matters.
}

func newUIState(windowDays int, policy intensity.Policy) uiState {
	return uiState{
		Theme:      intensity.Light,
		Body:       heatmap.Male,
		Side:       heatmap.Front,
		Policy:     policy,
		WindowDays: max(windowDays, 0),
		Manual:     nil,
	}
}

func (s uiState) window() stats.Window {
	return stats.LastDays(s.WindowDays)
}

// uiState returns the state stored in the session or the configured defaults.
func (app *application) uiState(ctx context.Context) uiState {
	state, ok := app.sessionManager.Get(ctx, uiStateSessionKey).(uiState)
	if !ok {
		return app.defaults
	}
	return state
}

// updateUIState applies update to a copy of the current state and stores it in the session.
func (app *application) updateUIState(ctx context.Context, update func(*uiState)) uiState {
	state := app.uiState(ctx)
	state.Manual = maps.Clone(state.Manual)
	update(&state)
	app.sessionManager.Put(ctx, uiStateSessionKey, state)
	return state
}

// windowOptions are the choices of the window selector.
//
//nolint:gochecknoglobals // constant list.
var windowOptions = []windowOption{
	{Days: 7, Label: "Last 7 days"},
	{Days: 30, Label: "Last 30 days"},
	{Days: 90, Label: "Last 90 days"},
	{Days: 365, Label: "Last year"},
	{Days: 0, Label: "All time"},
}

type windowOption struct {
	Days  int
	Label string
}
