package muscle_test

import (
	"errors"
	"testing"

	"github.com/myrjola/gymstats/internal/muscle"
)

func TestResolver_Resolve(t *testing.T) {
	r := muscle.MustNewResolver(muscle.DefaultAliases())

	tests := []struct {
		name   string
		raw    string
		want   muscle.Group
		wantOK bool
	}{
		{name: "canonical name", raw: "Pecho", want: muscle.Chest, wantOK: true},
		{name: "english alias", raw: "Chest", want: muscle.Chest, wantOK: true},
		{name: "synonym", raw: "Core", want: muscle.Abdomen, wantOK: true},
		{name: "without accent", raw: "Biceps", want: muscle.Biceps, wantOK: true},
		{name: "multi word alias", raw: "Lower Back", want: muscle.Back, wantOK: true},
		{name: "case sensitive", raw: "chest", want: "", wantOK: false},
		{name: "no substring match", raw: "Chest day", want: "", wantOK: false},
		{name: "empty", raw: "", want: "", wantOK: false},
		{name: "unknown", raw: "UnknownGroup", want: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolver_ResolveCanonical(t *testing.T) {
	r := muscle.MustNewResolver(muscle.DefaultAliases())
	if g, ok := r.ResolveCanonical("Glúteos"); !ok || g != muscle.Glutes {
		t.Errorf("ResolveCanonical(Glúteos) = %q, %v", g, ok)
	}
	if _, ok := r.ResolveCanonical("Glutes"); ok {
		t.Error("ResolveCanonical should not match aliases")
	}
}

func TestDefaultAliases_disjoint(t *testing.T) {
	owners := make(map[string]muscle.Group)
	for group, aliases := range muscle.DefaultAliases() {
		for _, alias := range aliases {
			if other, ok := owners[alias]; ok {
				t.Errorf("alias %q belongs to both %q and %q", alias, other, group)
			}
			owners[alias] = group
		}
	}
}

func TestDefaultAliases_coverEveryGroup(t *testing.T) {
	table := muscle.DefaultAliases()
	r := muscle.MustNewResolver(table)
	for _, g := range muscle.Groups() {
		if len(table[g]) == 0 {
			t.Errorf("group %q has no aliases", g)
		}
		if got, ok := r.Resolve(string(g)); !ok || got != g {
			t.Errorf("canonical name %q does not resolve to itself", g)
		}
	}
}

func TestNewResolver_invalidTables(t *testing.T) {
	tests := []struct {
		name    string
		table   muscle.AliasTable
		wantErr error
	}{
		{
			name: "ambiguous alias",
			table: muscle.AliasTable{
				muscle.Chest: {"Pecs", "Upper"},
				muscle.Back:  {"Upper"},
			},
			wantErr: muscle.ErrAmbiguousAlias,
		},
		{
			name:    "unknown group",
			table:   muscle.AliasTable{"Cuello": {"Neck"}},
			wantErr: muscle.ErrUnknownGroup,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := muscle.NewResolver(tt.table); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewResolver() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
