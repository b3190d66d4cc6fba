// Package contexthelpers stores the per request values the middleware hands to the handlers and templates.
package contexthelpers

import (
	"context"
	"net/http"
)

type key int

const (
	currentPathKey key = iota
	cspNonceKey
	traceIDKey
)

func withValue(r *http.Request, k key, v string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), k, v))
}

// value returns the empty string when k is unset.
func value(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// SetCurrentPath stores the path the navigation highlights.
func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	return withValue(r, currentPathKey, currentPath)
}

func CurrentPath(ctx context.Context) string { return value(ctx, currentPathKey) }

// SetCSPNonce stores the nonce allowed by the Content-Security-Policy of the response.
func SetCSPNonce(r *http.Request, nonce string) *http.Request {
	return withValue(r, cspNonceKey, nonce)
}

func CSPNonce(ctx context.Context) string { return value(ctx, cspNonceKey) }

func SetTraceID(r *http.Request, traceID string) *http.Request {
	return withValue(r, traceIDKey, traceID)
}

// TraceID returns the id given to the request by the logging middleware.
func TraceID(ctx context.Context) string { return value(ctx, traceIDKey) }
