// Package pipeline drives a harvest run: enumerate index pages, discover
// listing links, dispatch them to the worker pool and stream every record to
// the output writer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobboard-harvester/internal/discovery"
	"github.com/JakeFAU/jobboard-harvester/internal/dispatcher"
	"github.com/JakeFAU/jobboard-harvester/internal/listing"
	"github.com/JakeFAU/jobboard-harvester/internal/metrics"
	"github.com/JakeFAU/jobboard-harvester/internal/output"
	"github.com/JakeFAU/jobboard-harvester/internal/progress"
)

// LinkSource discovers listing URLs on one index page.
type LinkSource interface {
	Links(ctx context.Context, indexURL string) []string
}

// Dispatcher resolves every URL into exactly one record.
type Dispatcher interface {
	RunAll(ctx context.Context, urls []string, emit dispatcher.EmitFunc) (dispatcher.Summary, error)
	Progress() progress.Snapshot
}

// Config locates the board's index pages.
type Config struct {
	BaseURL   string
	PageParam string
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	StartPage   int
	Pages       int
	Links       int
	Records     int
	Unavailable int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration is the wall time of the run.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Driver wires discovery to dispatch for one run.
type Driver struct {
	links      LinkSource
	dispatcher Dispatcher
	cfg        Config
	runID      uuid.UUID
	events     progress.Emitter
	logger     *zap.Logger
	clock      Clock
}

// Option customizes a Driver.
type Option func(*Driver)

// WithRunID fixes the run identifier; otherwise a random one is generated.
func WithRunID(id uuid.UUID) Option {
	return func(d *Driver) {
		d.runID = id
	}
}

// Clock supplies run timestamps.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// WithClock overrides the clock used for StartedAt and FinishedAt.
func WithClock(c Clock) Option {
	return func(d *Driver) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithEvents publishes run milestones to events.
func WithEvents(events progress.Emitter) Option {
	return func(d *Driver) {
		d.events = events
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New constructs a Driver.
func New(links LinkSource, disp Dispatcher, cfg Config, opts ...Option) *Driver {
	d := &Driver{
		links:      links,
		dispatcher: disp,
		cfg:        cfg,
		runID:      uuid.New(),
		logger:     zap.NewNop(),
		clock:      wallClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunID identifies the run this driver executes.
func (d *Driver) RunID() uuid.UUID {
	return d.runID
}

// Progress reports the live listing tally.
func (d *Driver) Progress() progress.Snapshot {
	return d.dispatcher.Progress()
}

// Run harvests pages startPage..startPage+pageCount-1 and writes one record
// per discovered link to sink. It does not close sink.
func (d *Driver) Run(ctx context.Context, startPage, pageCount int, sink output.Writer) (Summary, error) {
	summary := Summary{
		RunID:     d.runID.String(),
		StartPage: startPage,
		Pages:     pageCount,
		StartedAt: d.clock.Now().UTC(),
	}
	if startPage < 1 {
		return summary, fmt.Errorf("start page must be >= 1, got %d", startPage)
	}
	if pageCount < 0 {
		return summary, fmt.Errorf("page count must be >= 0, got %d", pageCount)
	}
	logger := d.logger.With(zap.String("run_id", summary.RunID))
	d.emit(progress.Event{Stage: progress.StageRunStart})
	logger.Info("harvest started", zap.Int("start_page", startPage), zap.Int("pages", pageCount))

	urls, err := d.discover(ctx, startPage, pageCount)
	summary.Links = len(urls)
	if err != nil {
		return d.fail(logger, summary, err)
	}
	logger.Info("discovery finished", zap.Int("links", len(urls)))

	dispatched, err := d.dispatcher.RunAll(ctx, urls, func(ctx context.Context, rec listing.Record) error {
		return sink.WriteRow(ctx, rec)
	})
	summary.Records = dispatched.Completed
	summary.Unavailable = dispatched.Unavailable
	if err != nil {
		return d.fail(logger, summary, fmt.Errorf("dispatch listings: %w", err))
	}

	summary.FinishedAt = d.clock.Now().UTC()
	d.emit(progress.Event{Stage: progress.StageRunDone, Count: int64(summary.Records), Dur: summary.Duration()})
	logger.Info("harvest finished",
		zap.Int("records", summary.Records),
		zap.Int("unavailable", summary.Unavailable),
		zap.Duration("dur", summary.Duration()))
	return summary, nil
}

func (d *Driver) discover(ctx context.Context, startPage, pageCount int) ([]string, error) {
	urls := make([]string, 0)
	for page := startPage; page < startPage+pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return urls, fmt.Errorf("discover page %d: %w", page, err)
		}
		indexURL, err := discovery.IndexURL(d.cfg.BaseURL, d.cfg.PageParam, page)
		if err != nil {
			return urls, err
		}
		links := d.links.Links(ctx, indexURL)
		d.emit(progress.Event{
			Stage: progress.StageIndexDone,
			Site:  metrics.SanitizeSite(indexURL),
			URL:   indexURL,
			Count: int64(len(links)),
		})
		urls = append(urls, links...)
	}
	return urls, nil
}

func (d *Driver) fail(logger *zap.Logger, summary Summary, err error) (Summary, error) {
	summary.FinishedAt = d.clock.Now().UTC()
	note := err.Error()
	if errors.Is(err, context.Canceled) {
		note = "canceled"
	}
	d.emit(progress.Event{Stage: progress.StageRunError, Dur: summary.Duration(), Note: note})
	logger.Error("harvest failed", zap.Error(err))
	return summary, err
}

func (d *Driver) emit(evt progress.Event) {
	if d.events == nil {
		return
	}
	evt.RunID = progress.UUIDToBytes(d.runID)
	d.events.Emit(evt)
}
