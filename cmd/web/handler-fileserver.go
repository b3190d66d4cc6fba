package main

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// fileServerHandler serves the regular files of ui/static forever cacheable. Anything else, directories included,
// gets the not found page rendered behind the session middleware.
func (app *application) fileServerHandler(session middleware) (http.Handler, error) {
	dir, err := resolveUIDir("", "static")
	if err != nil {
		return nil, fmt.Errorf("resolve static dir: %w", err)
	}
	static := os.DirFS(dir)
	fileServer := app.logAndTraceRequest(secureHeaders(cacheForever(http.FileServerFS(static))))
	notFound := session(http.HandlerFunc(app.notFound))

	return app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			notFound.ServeHTTP(w, r)
			return
		}
		// fs.Stat rejects names escaping the root.
		info, statErr := fs.Stat(static, strings.TrimPrefix(path.Clean(r.URL.Path), "/"))
		if statErr != nil || info.IsDir() {
			notFound.ServeHTTP(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})), nil
}
