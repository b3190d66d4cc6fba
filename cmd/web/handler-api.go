package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/myrjola/gymstats/internal/errors"
	"github.com/myrjola/gymstats/internal/intensity"
	"github.com/myrjola/gymstats/internal/stats"
	"github.com/myrjola/gymstats/internal/workout"
)

// maxImportSize limits the body of record imports.
const maxImportSize = 8 << 20

type importResponse struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) recordsGET(w http.ResponseWriter, r *http.Request) {
	records, err := app.workoutService.Records(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if records == nil {
		records = []stats.WorkoutRecord{}
	}
	app.writeJSON(w, r, http.StatusOK, records)
}

func (app *application) recordGET(w http.ResponseWriter, r *http.Request) {
	record, err := app.workoutService.Record(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, workout.ErrNotFound) {
			app.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "record not found"})
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, record)
}

// recordsPOST imports a JSON array of workout records.
func (app *application) recordsPOST(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		app.writeJSON(w, r, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return
	}
	result, err := app.workoutService.Import(r.Context(), body)
	if err != nil {
		if errors.Is(err, workout.ErrInvalidImport) {
			app.logger.LogAttrs(r.Context(), slog.LevelDebug, "rejected import", errors.SlogError(err))
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, importResponse{Imported: len(result.IDs), IDs: result.IDs})
}

func (app *application) recordDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.workoutService.DeleteRecord(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, workout.ErrNotFound) {
			app.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "record not found"})
			return
		}
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statsGET serves the per group counts, levels and colors. The window, policy and theme query parameters default to
// all time, relative and light.
func (app *application) statsGET(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	window := stats.AllTime
	if v := query.Get("window"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "window must be a non-negative number of days"})
			return
		}
		window = stats.LastDays(days)
	}
	policy := intensity.Relative
	if v := query.Get("policy"); v != "" {
		var err error
		if policy, err = intensity.ParsePolicy(v); err != nil {
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}
	theme := intensity.Light
	if v := query.Get("theme"); v != "" {
		var err error
		if theme, err = intensity.ParseTheme(v); err != nil {
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	view, err := app.workoutService.Stats(r.Context(), window, policy, theme)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, view)
}

// exportGET downloads the workout records as a standalone SQLite database.
func (app *application) exportGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dir, err := os.MkdirTemp("", "gymstats-export-")
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "create export dir"))
		return
	}
	defer func() {
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "failed to remove export dir", errors.SlogError(removeErr))
		}
	}()

	path, err := app.db.Export(ctx, dir)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "export database"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
