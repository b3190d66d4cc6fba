package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/myrjola/gymstats/internal/contexthelpers"
)

// printer formats numbers shown in the templates.
//
//nolint:gochecknoglobals // message.Printer is safe for concurrent use once created.
var printer = message.NewPrinter(language.English)

// formatFloat formats a float to remove trailing zeros and unnecessary precision.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatNumber groups the digits of n.
func formatNumber(n any) string {
	return printer.Sprint(n)
}

// placeholderFuncs lets the templates parse. nonce and mdToHTML depend on the request and are replaced by
// requestFuncs before executing.
func placeholderFuncs() template.FuncMap {
	return template.FuncMap{
		"formatFloat":  formatFloat,
		"formatNumber": formatNumber,
		"nonce": func() template.HTMLAttr {
			panic("nonce called outside a request")
		},
		"mdToHTML": func(string) template.HTML {
			panic("mdToHTML called outside a request")
		},
	}
}

func (app *application) requestFuncs(ctx context.Context) template.FuncMap {
	nonce := template.HTMLAttr(fmt.Sprintf("nonce=%q", contexthelpers.CSPNonce(ctx))) //nolint:gosec // generated by us.
	return template.FuncMap{
		"nonce": func() template.HTMLAttr { return nonce },
		"mdToHTML": func(markdown string) template.HTML {
			return app.renderMarkdownToHTML(ctx, markdown)
		},
	}
}

// pageTemplate returns the parsed template of ui/templates/pages/{pageName} together with base.gohtml. The page
// directory has to define a template named "page".
func (app *application) pageTemplate(pageName string) (*template.Template, error) {
	if cached, ok := app.pages.Load(pageName); ok {
		return cached.(*template.Template), nil //nolint:errcheck,forcetypeassert // only templates are stored.
	}
	t, err := template.New(pageName).Funcs(placeholderFuncs()).
		ParseFS(app.templateFS, "base.gohtml", "pages/"+pageName+"/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", pageName, err)
	}
	actual, _ := app.pages.LoadOrStore(pageName, t)
	return actual.(*template.Template), nil //nolint:errcheck,forcetypeassert // only templates are stored.
}

func (app *application) renderToBuf(ctx context.Context, pageName string, data any) (*bytes.Buffer, error) {
	parsed, err := app.pageTemplate(pageName)
	if err != nil {
		return nil, err
	}
	t, err := parsed.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone page %s: %w", pageName, err)
	}
	buf := new(bytes.Buffer)
	if err = t.Funcs(app.requestFuncs(ctx)).ExecuteTemplate(buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute page %s: %w", pageName, err)
	}
	return buf, nil
}

// render renders the template residing in the /ui/templates/pages/{pageName} folder from the repository root and
// writes it to the response writer.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, pageName string, data any) {
	buf, err := app.renderToBuf(r.Context(), pageName, data)
	if err != nil {
		// The error page itself failed so fall back to plain text.
		if pageName == "error" {
			app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to render error page",
				slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		app.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
