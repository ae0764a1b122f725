// Package app initializes and holds the optional, long-lived backends of a
// harvest: the Postgres mirror, the CSV archives and the Pub/Sub notifier.
package app

import (
	"context"
	"errors"
	"fmt"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobboard-harvester/internal/config"
	"github.com/JakeFAU/jobboard-harvester/internal/output"
	"github.com/JakeFAU/jobboard-harvester/internal/publisher/pubsub"
	"github.com/JakeFAU/jobboard-harvester/internal/storage/gcs"
	"github.com/JakeFAU/jobboard-harvester/internal/storage/local"
	"github.com/JakeFAU/jobboard-harvester/internal/storage/postgres"
)

// BlobUploader copies a finished CSV to object storage.
type BlobUploader interface {
	UploadCSV(ctx context.Context, localPath, runID string) (string, error)
}

// RunNotifier announces a finished run.
type RunNotifier interface {
	Publish(ctx context.Context, summary pubsub.RunSummary) (string, error)
}

// App holds the shared services for one process. Every backend is optional.
type App struct {
	logger   *zap.Logger
	mirror   *postgres.ListingStore
	blobs    []BlobUploader
	notifier RunNotifier
	closers  []func() error
}

// Option customizes an App.
type Option func(*App)

// WithMirror mirrors every record into store.
func WithMirror(store *postgres.ListingStore) Option {
	return func(a *App) {
		a.mirror = store
		a.closers = append(a.closers, store.Close)
	}
}

// WithBlobs copies the finished CSV through u. Uploaders run in the order
// they were added.
func WithBlobs(u BlobUploader) Option {
	return func(a *App) {
		a.blobs = append(a.blobs, u)
	}
}

// WithNotifier announces finished runs through n.
func WithNotifier(n RunNotifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// New builds an App from already constructed backends.
func New(logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewApp connects the backends enabled in cfg. It fails fast if an enabled
// backend cannot be initialized, releasing whatever was already opened.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := New(logger)
	out := cfg.Output

	if out.Postgres.DSN != "" {
		store, err := postgres.NewListingStore(ctx, postgres.ListingStoreConfig{
			DSN:   out.Postgres.DSN,
			Table: out.Postgres.Table,
		}, "")
		if err != nil {
			return nil, a.abort(fmt.Errorf("init postgres mirror: %w", err))
		}
		WithMirror(store)(a)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, a.abort(err)
		}
		a.logger.Info("postgres mirror enabled", zap.String("table", out.Postgres.Table))
	}

	if out.ArchiveDir != "" {
		archive, err := local.New(local.Config{BaseDir: out.ArchiveDir})
		if err != nil {
			return nil, a.abort(fmt.Errorf("init csv archive: %w", err))
		}
		WithBlobs(archive)(a)
		a.logger.Info("local csv archive enabled", zap.String("dir", out.ArchiveDir))
	}

	if out.GCS.Bucket != "" {
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, a.abort(fmt.Errorf("create storage client: %w", err))
		}
		a.closers = append(a.closers, client.Close)
		blobs, err := gcs.New(client, gcs.Config{Bucket: out.GCS.Bucket, Prefix: out.GCS.Prefix})
		if err != nil {
			return nil, a.abort(err)
		}
		WithBlobs(blobs)(a)
		a.logger.Info("gcs upload enabled", zap.String("bucket", out.GCS.Bucket))
	}

	if out.PubSub.Topic != "" {
		client, err := gpubsub.NewClient(ctx, out.PubSub.ProjectID)
		if err != nil {
			return nil, a.abort(fmt.Errorf("create pubsub client: %w", err))
		}
		a.closers = append(a.closers, client.Close)
		pub := pubsub.New(client.Topic(out.PubSub.Topic))
		a.closers = append(a.closers, func() error {
			pub.Close()
			return nil
		})
		a.notifier = pub
		a.logger.Info("pubsub notifications enabled", zap.String("topic", out.PubSub.Topic))
	}

	return a, nil
}

func (a *App) abort(err error) error {
	if cerr := a.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// RunWriter returns the Postgres mirror for runID, or nil when disabled.
func (a *App) RunWriter(runID string) output.Writer {
	if a.mirror == nil {
		return nil
	}
	return a.mirror.ForRun(runID)
}

// Finish copies the CSV to every archive and announces the run. Each step is
// optional. The summary carries the URI of the last successful upload, so a
// remote bucket wins over the local archive; a run whose uploads all failed
// is still announced without a blob URI.
func (a *App) Finish(ctx context.Context, summary pubsub.RunSummary) (pubsub.RunSummary, error) {
	var errs []error
	for _, blobs := range a.blobs {
		uri, err := blobs.UploadCSV(ctx, summary.CSVPath, summary.RunID)
		if err != nil {
			errs = append(errs, fmt.Errorf("upload csv: %w", err))
			continue
		}
		summary.BlobURI = uri
		a.logger.Info("csv uploaded", zap.String("uri", uri))
	}
	if a.notifier != nil {
		id, err := a.notifier.Publish(ctx, summary)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish summary: %w", err))
		} else {
			a.logger.Info("run summary published", zap.String("message_id", id))
		}
	}
	return summary, errors.Join(errs...)
}

// Close shuts down every backend in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
