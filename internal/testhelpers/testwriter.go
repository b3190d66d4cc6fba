// Package testhelpers wires loggers to the test log.
package testhelpers

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// Writer forwards complete lines to tb.Log so that they show up only for failing or verbose tests.
type Writer struct {
	tb      testing.TB
	mu      sync.Mutex
	pending []byte
	done    bool
}

// NewWriter returns a Writer logging to tb. Writes after tb has finished panic since a goroutine such as a server
// outlived its test.
func NewWriter(tb testing.TB) io.Writer {
	w := &Writer{tb: tb} //nolint:exhaustruct // zero values are ready to use.
	tb.Cleanup(w.finish)
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		panic("testhelpers: write after test completion, is the server shut down in t.Cleanup?")
	}
	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		if i > 0 {
			w.tb.Log(string(w.pending[:i]))
		}
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

// finish logs the unterminated remainder and rejects further writes.
func (w *Writer) finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) > 0 {
		w.tb.Log(string(w.pending))
		w.pending = nil
	}
	w.done = true
}
