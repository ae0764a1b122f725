package output

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/JakeFAU/jobboard-harvester/internal/listing"
)

// DefaultCSVPath is where a run writes its table unless configured otherwise.
const DefaultCSVPath = "tecnoempleo_ofertas.csv"

// CSVWriter streams records as UTF-8 CSV rows under a fixed header.
type CSVWriter struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	path   string
	rows   int
	closed bool
}

// CreateCSV truncates path and writes the header row.
func CreateCSV(path string) (*CSVWriter, error) {
	if path == "" {
		path = DefaultCSVPath
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv %s: %w", path, err)
	}
	cw, err := NewCSVWriter(f)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	cw.path = path
	return cw, nil
}

// NewCSVWriter writes the header to w. If w is an io.Closer it is closed by
// Close.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	if err := cw.w.Write(listing.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return cw, nil
}

// Path returns the file backing the writer, empty for stream writers.
func (c *CSVWriter) Path() string {
	return c.path
}

// Rows returns the number of records written so far.
func (c *CSVWriter) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

// WriteRow appends one record.
func (c *CSVWriter) WriteRow(_ context.Context, rec listing.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("csv writer closed")
	}
	if err := c.w.Write(rec.Row()); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	c.rows++
	return nil
}

// Close flushes buffered rows and closes the underlying file. Repeated calls
// are no-ops.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.w.Flush()
	err := c.w.Error()
	if err != nil {
		err = fmt.Errorf("flush csv: %w", err)
	}
	if c.closer != nil {
		if cerr := c.closer.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close csv: %w", cerr))
		}
	}
	return err
}
