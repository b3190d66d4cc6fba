package main

import (
	"net/http"
	"time"

	"golang.org/x/text/language"
)

const monthLayout = "2006-01"

type reportTemplateData struct {
	BaseTemplateData
	Title    string
	Markdown string
	Previous string
	Next     string
}

// reportGET renders the monthly report of the {month} path parameter in the YYYY-MM format.
func (app *application) reportGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month, err := time.Parse(monthLayout, r.PathValue("month"))
	if err != nil {
		app.notFound(w, r)
		return
	}

	report, err := app.workoutService.MonthlyReport(ctx, month.Year(), month.Month(), time.UTC)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "report", reportTemplateData{
		BaseTemplateData: newBaseTemplateData(r, app.uiState(ctx)),
		Title:            month.Format("January 2006"),
		Markdown:         report.Markdown(language.English),
		Previous:         month.AddDate(0, -1, 0).Format(monthLayout),
		Next:             month.AddDate(0, 1, 0).Format(monthLayout),
	})
}
