// Package dispatcher fans listing URLs out to a bounded pool of workers and
// streams exactly one record per URL back to the caller.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/jobboard-harvester/internal/listing"
	"github.com/JakeFAU/jobboard-harvester/internal/metrics"
	"github.com/JakeFAU/jobboard-harvester/internal/progress"
	"github.com/JakeFAU/jobboard-harvester/internal/queue/memory"
	"github.com/JakeFAU/jobboard-harvester/internal/worker"
)

// DefaultConcurrency is the worker count used when Config leaves it unset.
const DefaultConcurrency = 10

// ErrAccounting reports a run that resolved a different number of records
// than it was given URLs.
var ErrAccounting = errors.New("record count does not match task count")

// EmitFunc receives each resolved record in completion order. It is called
// from a single goroutine.
type EmitFunc func(ctx context.Context, rec listing.Record) error

// Config tunes the worker pool.
type Config struct {
	Concurrency int
	QueueDepth  int
}

// Summary tallies a finished RunAll call.
type Summary struct {
	Total       int
	Completed   int
	Unavailable int
}

// Dispatcher runs one worker.Worker per pool slot.
type Dispatcher struct {
	worker  *worker.Worker
	cfg     Config
	counter progress.Counter
	events  progress.Emitter
	runID   [16]byte
	logger  *zap.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithEvents reports dispatch and per-listing completions to events under
// runID.
func WithEvents(runID [16]byte, events progress.Emitter) Option {
	return func(d *Dispatcher) {
		d.runID = runID
		d.events = events
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher.
func New(w *worker.Worker, cfg Config, opts ...Option) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = cfg.Concurrency
	}
	d := &Dispatcher{
		worker: w,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunAll processes every URL, duplicates included, and hands each resulting
// record to emit. It returns once all records are emitted, emit fails, or ctx
// is canceled.
func (d *Dispatcher) RunAll(ctx context.Context, urls []string, emit EmitFunc) (Summary, error) {
	summary := Summary{Total: len(urls)}
	d.counter.Reset(len(urls))
	if len(urls) == 0 {
		return summary, nil
	}
	d.emit(progress.Event{Stage: progress.StageDispatchStart, Count: int64(len(urls))})

	workers := min(d.cfg.Concurrency, len(urls))
	queue := memory.NewQueue(d.cfg.QueueDepth)
	results := make(chan worker.Result, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer queue.Close()
		for i, u := range urls {
			if err := queue.Enqueue(gctx, memory.Task{Seq: i, URL: u}); err != nil {
				return fmt.Errorf("enqueue listing %d: %w", i, err)
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return d.worker.Run(gctx, queue, results)
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	g.Go(func() error {
		for res := range results {
			unavailable := res.Record.IsUnavailable()
			summary.Completed++
			if unavailable {
				summary.Unavailable++
			}
			d.counter.Done(unavailable)
			d.emit(progress.Event{
				Stage:       progress.StageListingDone,
				Site:        metrics.SanitizeSite(res.Task.URL),
				URL:         res.Task.URL,
				Bytes:       int64(res.Bytes),
				StatusClass: progress.ClassifyStatus(res.StatusCode),
				Unavailable: unavailable,
				Dur:         res.Duration,
				Note:        errNote(res.Err),
			})
			if err := emit(gctx, res.Record); err != nil {
				return fmt.Errorf("emit record for %s: %w", res.Task.URL, err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return summary, err
	}
	if summary.Completed != summary.Total {
		d.logger.Error("record accounting mismatch",
			zap.Int("total", summary.Total),
			zap.Int("completed", summary.Completed))
		return summary, fmt.Errorf("%w: %d records for %d urls", ErrAccounting, summary.Completed, summary.Total)
	}
	return summary, nil
}

// Progress reports the tally of the current or most recent RunAll call. It
// is safe to call from any goroutine.
func (d *Dispatcher) Progress() progress.Snapshot {
	return d.counter.Snapshot()
}

func (d *Dispatcher) emit(evt progress.Event) {
	if d.events == nil {
		return
	}
	evt.RunID = d.runID
	d.events.Emit(evt)
}

func errNote(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
