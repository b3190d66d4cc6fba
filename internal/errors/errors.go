// Package errors extends the standard library errors with annotated errors.
//
// An annotated error carries a message, [slog.Attr] annotations and the stack of the call site that created it. Log
// it with [SlogError] to get every annotation in the error tree together with the innermost stack trace.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

const maxStackDepth = 32

type annotatedError struct {
	// msg is empty for errors created by With.
	msg   string
	cause error
	attrs []slog.Attr
	pcs   []uintptr
}

func (e *annotatedError) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	default:
		return e.msg + ": " + e.cause.Error()
	}
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

func annotate(msg string, cause error, attrs []slog.Attr) *annotatedError {
	pcs := make([]uintptr, maxStackDepth)
	// Skip runtime.Callers, annotate and the exported constructor.
	n := runtime.Callers(3, pcs) //nolint:mnd // see above
	return &annotatedError{msg: msg, cause: cause, attrs: attrs, pcs: pcs[:n]}
}

// NewSentinel creates a sentinel error meant to be declared as a package level variable and compared with [Is].
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:err113 // this is the sentinel constructor.
}

// New creates an error annotated with the call site stack and attrs.
func New(msg string, attrs ...slog.Attr) error {
	return annotate(msg, nil, attrs)
}

// Wrap wraps err with msg and annotates it with the call site stack and attrs. Wrapping nil yields an error with
// only msg.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return annotate(msg, err, attrs)
}

// With annotates err without changing its message. It returns nil for a nil err.
func With(err error, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return annotate("", err, attrs)
}

// DecoratePanic converts a recovered panic value into an error carrying the stack of the panic.
func DecoratePanic(excp any) error {
	switch v := excp.(type) {
	case nil:
		return nil
	case error:
		return annotate("panic", v, nil)
	default:
		return annotate(fmt.Sprintf("panic: %v", v), nil, nil)
	}
}

// Attrs returns the annotations of every annotated error in the tree of err, outermost first. When two errors
// annotate the same key the outer one wins.
func Attrs(err error) []slog.Attr {
	var (
		attrs []slog.Attr
		seen  = make(map[string]bool)
	)
	walk(err, func(ae *annotatedError) {
		for _, a := range ae.attrs {
			if seen[a.Key] {
				continue
			}
			seen[a.Key] = true
			attrs = append(attrs, a)
		}
	})
	return attrs
}

// SlogError turns err into an "error" group holding the message, the annotations from [Attrs] and the stack trace
// of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{} //nolint:exhaustruct // empty attr is ignored by handlers.
	}
	var pcs []uintptr
	walk(err, func(ae *annotatedError) {
		pcs = ae.pcs
	})

	group := []any{slog.String("message", err.Error())}
	if attrs := Attrs(err); len(attrs) > 0 {
		annotations := make([]any, len(attrs))
		for i, a := range attrs {
			annotations[i] = a
		}
		group = append(group, slog.Group("annotations", annotations...))
	}
	if len(pcs) > 0 {
		group = append(group, slog.String("stack", formatStack(pcs)))
	}
	return slog.Group("error", group...)
}

// walk visits every annotated error in the tree of err depth first.
func walk(err error, visit func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // the tree is walked manually.
		visit(ae)
	}
	switch x := err.(type) { //nolint:errorlint // the tree is walked manually.
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(x.Unwrap(), visit)
	}
}

// formatStack renders one "function\n\tfile:line" entry per frame.
func formatStack(pcs []uintptr) string {
	var (
		lines  []string
		frames = runtime.CallersFrames(pcs)
	)
	for {
		frame, more := frames.Next()
		if frame.File != "" {
			lines = append(lines, frame.Function+"\n\t"+frame.File+":"+strconv.Itoa(frame.Line))
		}
		if !more {
			break
		}
	}
	return strings.Join(lines, "\n")
}

// Is reports whether any error in err's tree matches target. See [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}
