package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/myrjola/gymstats/internal/contexthelpers"
)

// BaseTemplateData is embedded in the data of every page.
type BaseTemplateData struct {
	CurrentPath string
	Theme       string
}

func newBaseTemplateData(r *http.Request, state uiState) BaseTemplateData {
	return BaseTemplateData{
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
		Theme:       state.Theme.String(),
	}
}

// findModuleDir walks up from the working directory to the directory containing go.mod. Tests run in the package
// directory so this is how they find the ui folder.
func findModuleDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		if _, err = os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found: %w", os.ErrNotExist)
		}
		dir = parent
	}
}

// resolveUIDir returns configured when set and otherwise ui/<name> under the working directory or the module root.
// The result must be an existing directory.
func resolveUIDir(configured string, name string) (string, error) {
	dir := configured
	if dir == "" {
		dir = filepath.Join("ui", name)
		if _, err := os.Stat(dir); err != nil {
			moduleDir, modErr := findModuleDir()
			if modErr != nil {
				return "", fmt.Errorf("find module dir: %w", modErr)
			}
			dir = filepath.Join(moduleDir, "ui", name)
		}
	}
	stat, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("ui directory %s: %w", dir, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("ui path is not a directory: %s", dir)
	}
	return dir, nil
}

// resolveAndVerifyTemplatePath resolves the directory of the HTML templates. An empty templatePath means
// ui/templates.
func resolveAndVerifyTemplatePath(templatePath string) (string, error) {
	return resolveUIDir(templatePath, "templates")
}
