package errcoll

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// WriterErrorCollector is an [Interface] implementation that writes each
// collected error as a single line to an [io.Writer].  It is used when no
// Sentry DSN is configured.
type WriterErrorCollector struct {
	mu *sync.Mutex
	w  io.Writer
}

// NewWriterErrorCollector returns a new properly initialized
// *WriterErrorCollector.  w must not be nil.
func NewWriterErrorCollector(w io.Writer) (c *WriterErrorCollector) {
	return &WriterErrorCollector{
		mu: &sync.Mutex{},
		w:  w,
	}
}

// type check
var _ Interface = (*WriterErrorCollector)(nil)

// Collect implements the [Interface] interface for *WriterErrorCollector.  The
// line contains the UTC time, the location of the caller, and the error.
func (c *WriterErrorCollector) Collect(_ context.Context, err error) {
	now := time.Now().UTC().Format(time.RFC3339)
	loc := caller(1)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintf(c.w, "%s %s: collected error: %s\n", now, loc, err)
}
