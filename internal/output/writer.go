// Package output persists harvested records.
package output

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/jobboard-harvester/internal/listing"
)

// Writer persists records one at a time. WriteRow is called from a single
// goroutine; Close must be called exactly once on every exit path.
type Writer interface {
	WriteRow(ctx context.Context, rec listing.Record) error
	Close() error
}

// Fanout writes each record to every wrapped writer in order.
type Fanout struct {
	writers []Writer
}

// NewFanout wraps writers; nil entries are skipped.
func NewFanout(writers ...Writer) *Fanout {
	f := &Fanout{}
	for _, w := range writers {
		if w != nil {
			f.writers = append(f.writers, w)
		}
	}
	return f
}

// WriteRow stops at the first writer that fails.
func (f *Fanout) WriteRow(ctx context.Context, rec listing.Record) error {
	for i, w := range f.writers {
		if err := w.WriteRow(ctx, rec); err != nil {
			return fmt.Errorf("writer %d: %w", i, err)
		}
	}
	return nil
}

// Close closes every writer, even after a failure, and joins the errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, w := range f.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
