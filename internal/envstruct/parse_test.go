package envstruct_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/gymstats/internal/envstruct"
	"github.com/myrjola/gymstats/internal/errors"
)

type serverConfig struct {
	Addr       string        `env:"ADDR" envDefault:"localhost:8081"`
	SqliteURL  string        `env:"SQLITE_URL"`
	WindowDays int           `env:"WINDOW_DAYS" envDefault:"30"`
	Debug      bool          `env:"DEBUG" envDefault:"false"`
	Lifetime   time.Duration `env:"LIFETIME" envDefault:"720h"`
	Untagged   string
}

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestPopulate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    serverConfig
		wantErr []error
	}{
		{
			name: "defaults",
			env:  map[string]string{"SQLITE_URL": ":memory:"},
			want: serverConfig{
				Addr:       "localhost:8081",
				SqliteURL:  ":memory:",
				WindowDays: 30,
				Debug:      false,
				Lifetime:   720 * time.Hour,
				Untagged:   "",
			},
		},
		{
			name: "environment wins over defaults",
			env: map[string]string{
				"ADDR":        "localhost:0",
				"SQLITE_URL":  "./gymstats.sqlite3",
				"WINDOW_DAYS": "0",
				"DEBUG":       "true",
				"LIFETIME":    "90m",
				"Untagged":    "ignored",
			},
			want: serverConfig{
				Addr:       "localhost:0",
				SqliteURL:  "./gymstats.sqlite3",
				WindowDays: 0,
				Debug:      true,
				Lifetime:   90 * time.Minute,
				Untagged:   "",
			},
		},
		{
			name:    "missing variable without default",
			env:     map[string]string{},
			wantErr: []error{envstruct.ErrEnvNotSet},
		},
		{
			name: "every unparsable field is reported",
			env: map[string]string{
				"SQLITE_URL":  ":memory:",
				"WINDOW_DAYS": "thirty",
				"LIFETIME":    "a month",
			},
			wantErr: []error{envstruct.ErrParse},
		},
		{
			name: "parse and missing errors are joined",
			env: map[string]string{
				"DEBUG": "maybe",
			},
			wantErr: []error{envstruct.ErrParse, envstruct.ErrEnvNotSet},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got serverConfig
			err := envstruct.Populate(&got, lookupFrom(tt.env))
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Populate() unexpected error = %v", err)
				}
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("Populate() mismatch (-want +got):\n%s", diff)
				}
				return
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("Populate() error = %v, want %v", err, want)
				}
			}
		})
	}
}

func TestPopulate_invalidTarget(t *testing.T) {
	lookup := lookupFrom(nil)
	for name, v := range map[string]any{
		"nil":         nil,
		"struct":      serverConfig{}, //nolint:exhaustruct // zero value.
		"int pointer": new(int),
	} {
		if err := envstruct.Populate(v, lookup); !errors.Is(err, envstruct.ErrInvalidValue) {
			t.Errorf("Populate(%s) error = %v, want ErrInvalidValue", name, err)
		}
	}
}

func TestPopulate_unsupportedKind(t *testing.T) {
	var cfg struct {
		Ratio float64 `env:"RATIO"`
	}
	err := envstruct.Populate(&cfg, lookupFrom(map[string]string{"RATIO": "0.5"}))
	if !errors.Is(err, envstruct.ErrInvalidValue) {
		t.Errorf("Populate() error = %v, want ErrInvalidValue", err)
	}
	attrs := errors.Attrs(err)
	if len(attrs) == 0 || attrs[0].Value.String() != "RATIO" {
		t.Errorf("Attrs() = %v, want env=RATIO", attrs)
	}
}
