// Package envstruct fills configuration structs from environment variables.
package envstruct

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"github.com/myrjola/gymstats/internal/errors"
)

var (
	ErrEnvNotSet    = errors.NewSentinel("environment variable not set")
	ErrInvalidValue = errors.NewSentinel("v must be a pointer to a struct")
	ErrParse        = errors.NewSentinel("parse environment variable")
)

//nolint:gochecknoglobals // reflect.Type constant.
var durationType = reflect.TypeFor[time.Duration]()

// Populate sets the fields of the struct v points to from the environment.
//
// Fields tagged `env:"NAME"` get the value of NAME as reported by lookupEnv, which has the signature of
// [os.LookupEnv]. An unset variable falls back to the `envDefault:"value"` tag and without one ErrEnvNotSet is
// returned. Fields without the env tag are left alone.
//
// Supported field types are string, int, bool and [time.Duration], the last one parsed with [time.ParseDuration].
// All failing fields are reported in one joined error.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return errors.With(ErrInvalidValue, slog.String("type", fmt.Sprintf("%T", v)))
	}
	s := ptr.Elem()

	var errs []error
	for i := range s.NumField() {
		field := s.Type().Field(i)
		name, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}
		value, ok := lookupEnv(name)
		if !ok {
			if value, ok = field.Tag.Lookup("envDefault"); !ok {
				errs = append(errs, errors.With(ErrEnvNotSet, slog.String("env", name)))
				continue
			}
		}
		if err := set(s.Field(i), value); err != nil {
			errs = append(errs, errors.Wrap(err, "set "+field.Name, slog.String("env", name)))
		}
	}
	return errors.Join(errs...)
}

func set(field reflect.Value, value string) error {
	if !field.CanSet() {
		return ErrInvalidValue
	}
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		field.SetInt(int64(d))
		return nil
	}
	switch field.Kind() { //nolint:exhaustive // the rest are unsupported.
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%w: unsupported field kind %s", ErrInvalidValue, field.Kind())
	}
	return nil
}
