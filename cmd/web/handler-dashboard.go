package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/muscle"
	"github.com/myrjola/gymstats/internal/workout"
)

const percentMultiplier = 100

type dashboardTemplateData struct {
	BaseTemplateData
	Window        string
	WindowDays    int
	WindowOptions []windowOption
	Policy        string
	Workouts      string
	Series        string
	Reps          string
	Volume        string
	Elapsed       string
	Bars          []barView
	ReportMonth   string
}

// barView is one row of the ranked bar list.
type barView struct {
	Group        muscle.Group
	Count        int
	Reps         int
	Volume       string
	WidthPercent int
	Color        intensity.Color
}

func (app *application) dashboardGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := app.uiState(ctx)
	// A days query parameter selects the window for this view only.
	if days, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && days >= 0 {
		state.WindowDays = days
	}

	dashboard, err := app.workoutService.Dashboard(ctx, state.window())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "dashboard", dashboardTemplateData{
		BaseTemplateData: newBaseTemplateData(r, state),
		Window:           dashboard.Window.String(),
		WindowDays:       state.WindowDays,
		WindowOptions:    windowOptions,
		Policy:           state.Policy.String(),
		Workouts:         formatNumber(dashboard.Summary.Workouts),
		Series:           formatNumber(dashboard.Summary.Series),
		Reps:             formatNumber(dashboard.Summary.Reps),
		Volume:           printer.Sprintf("%.1f kg", dashboard.Summary.Volume),
		Elapsed:          dashboard.Summary.Elapsed.Round(time.Minute).String(),
		Bars:             toBars(dashboard, state),
		ReportMonth:      time.Now().Format("2006-01"),
	})
}

// toBars scales the ranked groups against the largest count and colors them like the heatmap.
func toBars(dashboard workout.Dashboard, state uiState) []barView {
	maxCount := intensity.MaxOf(dashboard.Counts.Values())
	bars := make([]barView, 0, len(dashboard.Ranked))
	for _, gc := range dashboard.Ranked {
		totals := dashboard.Totals[gc.Group]
		bars = append(bars, barView{
			Group:        gc.Group,
			Count:        gc.Count,
			Reps:         totals.Reps,
			Volume:       printer.Sprintf("%.1f kg", totals.Volume),
			WidthPercent: gc.Count * percentMultiplier / max(maxCount, 1),
			Color:        intensity.ColorOf(state.Policy.Level(gc.Count, maxCount), state.Theme, state.Policy),
		})
	}
	return bars
}

func (app *application) preferencesPOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	prefs, err := parsePreferences(r)
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	app.updateUIState(r.Context(), prefs)

	returnTo := r.PostForm.Get("return_to")
	if returnTo != "/heatmap" {
		returnTo = "/"
	}
	redirect(w, r, returnTo)
}
