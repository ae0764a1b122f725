// Package worker fetches and extracts a single listing per task.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobboard-harvester/internal/crawler"
	"github.com/JakeFAU/jobboard-harvester/internal/listing"
	"github.com/JakeFAU/jobboard-harvester/internal/metrics"
	"github.com/JakeFAU/jobboard-harvester/internal/queue/memory"
)

// Extractor turns a listing body into a record.
type Extractor interface {
	ExtractHTML(body []byte, link string) (listing.Record, error)
}

// Source hands out tasks until it reports memory.ErrClosed.
type Source interface {
	Dequeue(ctx context.Context) (memory.Task, error)
}

// Result is the terminal outcome of one task. Err carries the cause when
// Record is a fallback.
type Result struct {
	Task       memory.Task
	Record     listing.Record
	Err        error
	StatusCode int
	Bytes      int
	Duration   time.Duration
}

// Worker consumes tasks and executes the fetch and extract pipeline.
type Worker struct {
	fetcher   crawler.Fetcher
	extractor Extractor
	logger    *zap.Logger
}

// New constructs a Worker.
func New(fetcher crawler.Fetcher, extractor Extractor, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
	}
}

// Run pulls tasks from src and delivers one Result per task to results. It
// returns nil once src is closed and drained.
func (w *Worker) Run(ctx context.Context, src Source, results chan<- Result) error {
	for {
		task, err := src.Dequeue(ctx)
		if errors.Is(err, memory.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dequeue task: %w", err)
		}
		res := w.Handle(ctx, task)
		select {
		case results <- res:
		case <-ctx.Done():
			return fmt.Errorf("deliver result for %s: %w", task.URL, ctx.Err())
		}
	}
}

// Process fetches and extracts url, returning a fallback record on failure.
func (w *Worker) Process(ctx context.Context, url string) listing.Record {
	return w.Handle(ctx, memory.Task{URL: url}).Record
}

// Handle runs one task to completion. It never returns without a record.
func (w *Worker) Handle(ctx context.Context, task memory.Task) (res Result) {
	res.Task = task
	start := time.Now()
	metrics.IncActiveWorkers()
	defer func() {
		metrics.DecActiveWorkers()
		if r := recover(); r != nil {
			res = w.fallback(res, fmt.Errorf("panic while processing listing: %v", r))
		}
		res.Duration = time.Since(start)
	}()

	resp, err := w.fetcher.Fetch(ctx, task.URL)
	res.StatusCode = resp.StatusCode
	res.Bytes = len(resp.Body)
	if err != nil {
		return w.fallback(res, fmt.Errorf("fetch listing: %w", err))
	}
	rec, err := w.extractor.ExtractHTML(resp.Body, task.URL)
	if err != nil {
		return w.fallback(res, fmt.Errorf("extract listing: %w", err))
	}
	res.Record = rec
	return res
}

func (w *Worker) fallback(res Result, err error) Result {
	w.logger.Warn("listing unavailable", zap.String("url", res.Task.URL), zap.Error(err))
	res.Record = listing.Unavailable(res.Task.URL)
	res.Err = err
	return res
}
