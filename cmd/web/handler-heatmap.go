package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/heatmap"
	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/muscle"
	"github.com/myrjola/gymstats/internal/workout"
)

// manualLevelAuto clears a manual override.
const manualLevelAuto = "auto"

type heatmapTemplateData struct {
	BaseTemplateData
	Window        string
	WindowDays    int
	WindowOptions []windowOption
	Body          string
	Side          string
	Policy        string
	ViewBox       string
	Outline       []string
	Shapes        []shapeView
	Legend        []legendEntry
	Selected      *selectedView
}

type shapeView struct {
	heatmap.Shape
	Selected bool
}

type legendEntry struct {
	Level intensity.Level
	Color intensity.Color
}

// selectedView describes the activated muscle region.
type selectedView struct {
	MuscleID string
	Group    muscle.Group
	Count    int
	Level    intensity.Level
	// Manual is the override level or empty when the level is computed.
	Manual string
	Levels []intensity.Level
}

func heatmapOptions(state uiState) workout.HeatmapOptions {
	return workout.HeatmapOptions{
		Window: state.window(),
		Body:   state.Body,
		Side:   state.Side,
		Theme:  state.Theme,
		Policy: state.Policy,
		Manual: state.Manual,
	}
}

func (app *application) heatmapGET(w http.ResponseWriter, r *http.Request) {
	app.renderHeatmap(w, r, "")
}

// renderHeatmap renders the heatmap page of the session state with the region selected highlighted. An empty
// selected renders no selection panel.
func (app *application) renderHeatmap(w http.ResponseWriter, r *http.Request, selected string) {
	ctx := r.Context()
	state := app.uiState(ctx)
	view, err := app.workoutService.Heatmap(ctx, heatmapOptions(state))
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	data := heatmapTemplateData{
		BaseTemplateData: newBaseTemplateData(r, state),
		Window:           state.window().String(),
		WindowDays:       state.WindowDays,
		WindowOptions:    windowOptions,
		Body:             string(state.Body),
		Side:             string(state.Side),
		Policy:           state.Policy.String(),
		ViewBox:          view.Diagram.ViewBox,
		Outline:          view.Diagram.Outline,
		Shapes:           make([]shapeView, 0, len(view.Shapes)),
		Legend:           make([]legendEntry, 0, len(view.Legend)),
		Selected:         nil,
	}
	for _, s := range view.Shapes {
		isSelected := selected != "" && s.MuscleID == selected
		data.Shapes = append(data.Shapes, shapeView{Shape: s, Selected: isSelected})
		if isSelected && data.Selected == nil {
			data.Selected = &selectedView{
				MuscleID: s.MuscleID,
				Group:    s.Group,
				Count:    view.Counts[s.Group],
				Level:    s.Level,
				Manual:   "",
				Levels:   levels(),
			}
			if manual, ok := state.Manual[s.MuscleID]; ok {
				data.Selected.Manual = strconv.Itoa(int(manual))
			}
		}
	}
	for level, color := range view.Legend {
		data.Legend = append(data.Legend, legendEntry{Level: intensity.Level(level), Color: color})
	}

	app.render(w, r, http.StatusOK, "heatmap", data)
}

func levels() []intensity.Level {
	all := make([]intensity.Level, 0, intensity.LevelMax+1)
	for l := intensity.LevelNone; l <= intensity.LevelMax; l++ {
		all = append(all, l)
	}
	return all
}

// heatmapMuscleGET activates a muscle region and renders the heatmap with it selected. The selection lives in the
// URL so the request leaves the session untouched.
func (app *application) heatmapMuscleGET(w http.ResponseWriter, r *http.Request) {
	var selected string
	found := app.workoutService.SelectMuscle(r.PathValue("muscleID"), func(s heatmap.Selection) {
		selected = s.MuscleID
	})
	if !found {
		app.notFound(w, r)
		return
	}
	app.renderHeatmap(w, r, selected)
}

// heatmapManualPOST sets or clears the manual level of a muscle region.
func (app *application) heatmapManualPOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	muscleID := r.PostForm.Get("muscle_id")
	if _, ok := app.workoutService.MuscleGroup(muscleID); !ok {
		app.clientError(w, r, http.StatusBadRequest, errors.New("unknown muscle id",
			slog.String("muscle_id", muscleID)))
		return
	}

	raw := r.PostForm.Get("level")
	var update func(*uiState)
	if raw == manualLevelAuto || raw == "" {
		update = func(s *uiState) {
			delete(s.Manual, muscleID)
		}
	} else {
		n, err := strconv.Atoi(raw)
		if err != nil || intensity.Level(n) != intensity.Level(n).Clamp() {
			app.clientError(w, r, http.StatusBadRequest, errors.New("invalid level", slog.String("level", raw)))
			return
		}
		update = func(s *uiState) {
			if s.Manual == nil {
				s.Manual = make(map[string]intensity.Level)
			}
			s.Manual[muscleID] = intensity.Level(n)
		}
	}
	app.updateUIState(r.Context(), update)
	redirect(w, r, "/heatmap/muscles/"+url.PathEscape(muscleID))
}

// heatmapSVG serves the heatmap of the session as a standalone SVG document. The body and side query parameters
// override the session state.
func (app *application) heatmapSVG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts := heatmapOptions(app.uiState(ctx))
	query := r.URL.Query()
	var err error
	if v := query.Get("body"); v != "" {
		if opts.Body, err = heatmap.ParseBodyType(v); err != nil {
			app.clientError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	if v := query.Get("side"); v != "" {
		if opts.Side, err = heatmap.ParseSide(v); err != nil {
			app.clientError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	view, err := app.workoutService.Heatmap(ctx, opts)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err = heatmap.WriteSVG(&buf, view.Diagram, view.Shapes); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = buf.WriteTo(w)
}
