// Package app initializes and holds long-lived application services.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/vagasfeed/ingestor/internal/api"
	gcsarchive "github.com/vagasfeed/ingestor/internal/archive/gcs"
	localarchive "github.com/vagasfeed/ingestor/internal/archive/local"
	"github.com/vagasfeed/ingestor/internal/config"
	"github.com/vagasfeed/ingestor/internal/enrich"
	"github.com/vagasfeed/ingestor/internal/feed"
	"github.com/vagasfeed/ingestor/internal/metrics"
	"github.com/vagasfeed/ingestor/internal/pipeline"
	pubsubpublisher "github.com/vagasfeed/ingestor/internal/publisher/pubsub"
	"github.com/vagasfeed/ingestor/internal/rewrite"
	"github.com/vagasfeed/ingestor/internal/scheduler"
	"github.com/vagasfeed/ingestor/internal/stats"
	"github.com/vagasfeed/ingestor/internal/store/postgres"
)

// App wires every service of the ingestion process.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	store        *postgres.JobStore
	runner       *pipeline.Runner
	sched        *scheduler.Scheduler
	server       *http.Server
	statsRec     *stats.Recorder
	pubsubClient *pubsub.Client
	gcsClient    *gcsclient.Client
}

// New builds the application. It fails fast when any required downstream
// cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()

	store, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("init job store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, store: store}

	archive, err := a.buildArchive(ctx)
	if err != nil {
		a.closeClients()
		return nil, err
	}
	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		a.closeClients()
		return nil, err
	}
	var statsRec pipeline.StatsRecorder
	if cfg.Redis.URL != "" {
		rec, err := stats.NewRecorder(ctx, cfg.Redis.URL)
		if err != nil {
			a.closeClients()
			return nil, fmt.Errorf("init stats recorder: %w", err)
		}
		a.statsRec = rec
		statsRec = rec
	}

	var completer rewrite.Completer
	if cfg.AI.Enabled {
		completer = rewrite.NewOpenAIClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, nil)
	}
	extractor := enrich.NewExtractor(cfg.Feed.Profession)
	rewriter := rewrite.New(completer, extractor, cfg.Feed.Profession, cfg.Feed.Language, logger.Named("rewrite"))
	inferencer := enrich.NewInferencer(cfg.Feed.SiteURL, "")
	matcher := pipeline.NewMatcher(cfg.KeywordList())
	fetcher := feed.NewHTTPFetcher(cfg.Feed.URL, cfg.Feed.UserAgent, feed.DefaultClient(cfg.ConnectTimeout()))

	a.runner = pipeline.NewRunner(
		fetcher,
		func(r io.Reader) pipeline.ItemSource { return feed.NewAssembler(r) },
		matcher,
		inferencer,
		rewriter,
		store,
		archive,
		publisher,
		statsRec,
		pipeline.SystemClock{},
		pipeline.RunnerConfig{
			Source:        feedHost(cfg.Feed.URL),
			BatchSize:     cfg.Feed.BatchSize,
			MaxJobs:       cfg.Retention.MaxJobs,
			AIEnabled:     cfg.AI.Enabled,
			AILimit:       cfg.AI.ProcessLimit,
			Topic:         cfg.PubSub.TopicID,
			ArchivePrefix: cfg.Archive.Prefix,
		},
		logger.Named("pipeline"),
	)

	a.sched = scheduler.New(a.runner, cfg.Feed.Schedule, logger.Named("scheduler"))
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(a.runner, logger.Named("api")).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// RunOnce executes a single pipeline run without starting the server or
// the cron trigger.
func (a *App) RunOnce(ctx context.Context) (pipeline.RunReport, error) {
	return a.runner.TryRun(ctx)
}

// Run starts the HTTP server and the cron trigger, then blocks until the
// context is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.sched.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("http server failed", zap.Error(err))
		return err
	}

	a.sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", zap.Error(err))
	}
	a.Close()
	return nil
}

// Close releases every held client.
func (a *App) Close() {
	a.closeClients()
	if a.store != nil {
		a.store.Close()
	}
}

func (a *App) closeClients() {
	if a.statsRec != nil {
		if err := a.statsRec.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("close pubsub client", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("close gcs client", zap.Error(err))
		}
	}
}

func (a *App) buildArchive(ctx context.Context) (pipeline.BlobStore, error) {
	switch a.cfg.Archive.Provider {
	case "", "none":
		return nil, nil
	case "local":
		blob, err := localarchive.New(localarchive.Config{BaseDir: a.cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local archive: %w", err)
		}
		return blob, nil
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		a.gcsClient = client
		blob, err := gcsarchive.New(client, gcsarchive.Config{Bucket: a.cfg.Archive.Bucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs archive: %w", err)
		}
		return blob, nil
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", a.cfg.Archive.Provider)
	}
}

func (a *App) buildPublisher(ctx context.Context) (pipeline.Publisher, error) {
	if a.cfg.PubSub.ProjectID == "" || a.cfg.PubSub.TopicID == "" {
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	a.pubsubClient = client
	return pubsubpublisher.New(client.Topic(a.cfg.PubSub.TopicID)), nil
}

func feedHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
