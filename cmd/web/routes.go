package main

import (
	"fmt"
	"net/http"

	"github.com/myrjola/gymstats/internal/metrics"
)

type middleware func(http.Handler) http.Handler

func (app *application) routes() (*http.ServeMux, error) {
	shared := func(next http.Handler) http.Handler {
		return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(commonContext(app.timeout(next)))))
	}
	// api routes are stateless while pages load the session holding the ui state.
	var (
		api middleware = func(next http.Handler) http.Handler {
			return app.recoverPanic(shared(next))
		}
		page middleware = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(shared(next))))
		}
	)

	routes := []struct {
		pattern string
		chain   middleware
		handler http.HandlerFunc
	}{
		{"GET /{$}", page, app.dashboardGET},
		{"GET /heatmap", page, app.heatmapGET},
		{"GET /heatmap.svg", page, app.heatmapSVG},
		{"GET /heatmap/muscles/{muscleID}", page, app.heatmapMuscleGET},
		{"POST /heatmap/manual", page, app.heatmapManualPOST},
		{"POST /preferences", page, app.preferencesPOST},
		{"GET /reports/{month}", page, app.reportGET},

		{"GET /api/records", api, app.recordsGET},
		{"POST /api/records", api, app.recordsPOST},
		{"GET /api/records/{id}", api, app.recordGET},
		{"DELETE /api/records/{id}", api, app.recordDELETE},
		{"GET /api/stats", api, app.statsGET},
		{"GET /api/export", api, app.exportGET},
		{"GET /api/healthy", api, app.healthy},
	}

	mux := http.NewServeMux()
	for _, route := range routes {
		mux.Handle(route.pattern, route.chain(route.handler))
	}
	mux.Handle("GET /metrics", app.recoverPanic(metrics.Handler()))

	static, err := app.fileServerHandler(page)
	if err != nil {
		return nil, fmt.Errorf("file server: %w", err)
	}
	mux.Handle("/", static)

	return mux, nil
}
