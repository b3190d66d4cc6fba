package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/myrjola/gymstats/internal/heatmap"
	"github.com/myrjola/gymstats/internal/intensity"
)

// parsePreferences validates the submitted preference fields. Fields missing from the form keep their value.
func parsePreferences(r *http.Request) (func(*uiState), error) {
	var updates []func(*uiState)

	if v := r.PostForm.Get("theme"); v != "" {
		theme, err := intensity.ParseTheme(v)
		if err != nil {
			return nil, fmt.Errorf("theme: %w", err)
		}
		updates = append(updates, func(s *uiState) { s.Theme = theme })
	}
	if v := r.PostForm.Get("body"); v != "" {
		body, err := heatmap.ParseBodyType(v)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		updates = append(updates, func(s *uiState) { s.Body = body })
	}
	if v := r.PostForm.Get("side"); v != "" {
		side, err := heatmap.ParseSide(v)
		if err != nil {
			return nil, fmt.Errorf("side: %w", err)
		}
		updates = append(updates, func(s *uiState) { s.Side = side })
	}
	if v := r.PostForm.Get("policy"); v != "" {
		policy, err := intensity.ParsePolicy(v)
		if err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
		updates = append(updates, func(s *uiState) { s.Policy = policy })
	}
	if v := r.PostForm.Get("window_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return nil, fmt.Errorf("window_days: invalid value %q", v)
		}
		updates = append(updates, func(s *uiState) { s.WindowDays = days })
	}

	return func(s *uiState) {
		for _, update := range updates {
			update(s)
		}
	}, nil
}
