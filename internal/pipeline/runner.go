package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vagasfeed/ingestor/internal/enrich"
	"github.com/vagasfeed/ingestor/internal/metrics"
)

// RunnerConfig controls one pipeline's behavior.
type RunnerConfig struct {
	// Source is the origin label stored on every job (the feed host).
	Source string
	// BatchSize groups inserts into one transaction per batch.
	BatchSize int
	// MaxJobs is the retention cap enforced after each run; 0 disables
	// trimming.
	MaxJobs int64
	// AIEnabled turns the AI rewrite path on.
	AIEnabled bool
	// AILimit caps AI rewrites per run; 0 means unlimited.
	AILimit int
	// Topic names the pub/sub topic for run-completion events; empty
	// disables publishing.
	Topic string
	// ArchivePrefix prefixes raw-feed archive object paths.
	ArchivePrefix string
}

// Runner executes the full ingestion pipeline: fetch, assemble, filter,
// enrich, persist, trim. A Guard keeps runs exclusive.
type Runner struct {
	guard      *Guard
	fetcher    FeedFetcher
	newSource  func(io.Reader) ItemSource
	matcher    *Matcher
	inferencer *enrich.Inferencer
	rewriter   Rewriter
	store      JobStore
	archive    BlobStore
	publisher  Publisher
	stats      StatsRecorder
	clock      Clock
	cfg        RunnerConfig
	logger     *zap.Logger

	mu         sync.RWMutex
	lastReport *RunReport
}

// NewRunner wires a Runner. archive, publisher and stats may be nil when
// the corresponding integration is disabled.
func NewRunner(
	fetcher FeedFetcher,
	newSource func(io.Reader) ItemSource,
	matcher *Matcher,
	inferencer *enrich.Inferencer,
	rewriter Rewriter,
	store JobStore,
	archive BlobStore,
	publisher Publisher,
	stats StatsRecorder,
	clock Clock,
	cfg RunnerConfig,
	logger *zap.Logger,
) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		guard:      NewGuard(),
		fetcher:    fetcher,
		newSource:  newSource,
		matcher:    matcher,
		inferencer: inferencer,
		rewriter:   rewriter,
		store:      store,
		archive:    archive,
		publisher:  publisher,
		stats:      stats,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// TryRun executes one pipeline run unless another is in progress, in
// which case it returns ErrAlreadyRunning without touching storage. The
// guard is released on every exit path.
func (r *Runner) TryRun(ctx context.Context) (RunReport, error) {
	if !r.guard.TryAcquire() {
		r.logger.Info("pipeline run skipped, another run is active")
		return RunReport{Status: RunStatusSkipped}, ErrAlreadyRunning
	}
	defer r.guard.Release()

	report := RunReport{
		ID:        uuid.NewString(),
		StartedAt: r.clock.Now(),
	}
	runErr := r.run(ctx, &report)
	report.FinishedAt = r.clock.Now()
	if runErr != nil {
		report.Status = RunStatusFailed
		report.ErrorText = runErr.Error()
		r.logger.Error("pipeline run failed",
			zap.String("run_id", report.ID),
			zap.Error(runErr),
		)
	} else {
		report.Status = RunStatusSucceeded
		r.logger.Info("pipeline run finished",
			zap.String("run_id", report.ID),
			zap.Int("processed", report.Counters.Processed),
			zap.Int("matched", report.Counters.Matched),
			zap.Int("stored", report.Counters.Stored),
			zap.Int("skipped", report.Counters.Skipped),
		)
	}
	metrics.ObserveRun(string(report.Status), report.FinishedAt.Sub(report.StartedAt))

	r.setLastReport(report)
	r.notify(ctx, report)
	return report, runErr
}

// LastReport returns the most recent run report, if any.
func (r *Runner) LastReport() (RunReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastReport == nil {
		return RunReport{}, false
	}
	return *r.lastReport, true
}

func (r *Runner) setLastReport(report RunReport) {
	r.mu.Lock()
	r.lastReport = &report
	r.mu.Unlock()
}

func (r *Runner) run(ctx context.Context, report *RunReport) error {
	body, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	stream, finishArchive := r.teeArchive(ctx, body, report.ID)
	source := r.newSource(stream)

	batch := make([]Job, 0, r.cfg.BatchSize)
	aiUsed := 0
	var streamErr error

	for {
		item, err := source.Next()
		if err != nil {
			if err != io.EOF {
				streamErr = err
			}
			break
		}
		report.Counters.Processed++

		guid := itemGUID(item, report.Counters.Processed)
		exists, err := r.store.ExistsGUID(ctx, guid)
		if err != nil {
			streamErr = &PersistenceError{Err: err}
			break
		}
		if exists {
			report.Counters.Skipped++
			metrics.ObserveItem("duplicate")
			continue
		}
		if !r.matcher.Matches(item.Title, item.Company, item.Description) {
			metrics.ObserveItem("rejected")
			continue
		}
		report.Counters.Matched++
		metrics.ObserveItem("matched")

		job := r.buildJob(ctx, item, guid, &report.Counters, &aiUsed)
		batch = append(batch, job)
		if len(batch) >= r.cfg.BatchSize {
			if err := r.flush(ctx, batch, &report.Counters); err != nil {
				finishArchive()
				return err
			}
			batch = batch[:0]
		}
	}

	// Items assembled before a mid-stream failure are still persisted;
	// the run then fails with the stream error.
	if err := r.flush(ctx, batch, &report.Counters); err != nil {
		finishArchive()
		return err
	}
	finishArchive()
	if streamErr != nil {
		return streamErr
	}

	if r.cfg.MaxJobs > 0 {
		trimmed, err := r.store.TrimToMax(ctx, r.cfg.MaxJobs)
		if err != nil {
			return &PersistenceError{Err: err}
		}
		report.Counters.Trimmed = int(trimmed)
		metrics.ObserveTrimmed(trimmed)
	}
	return nil
}

func (r *Runner) buildJob(ctx context.Context, item RawFeedItem, guid string, counters *RunCounters, aiUsed *int) Job {
	useAI := r.cfg.AIEnabled && (r.cfg.AILimit == 0 || *aiUsed < r.cfg.AILimit)
	res := r.rewriter.Rewrite(ctx, item.Title, item.Company, item.Description, useAI)
	if res.UsedAI {
		*aiUsed++
		counters.AIEnhanced++
		metrics.ObserveRewrite("ai")
	} else {
		counters.Fallback++
		metrics.ObserveRewrite("fallback")
	}

	meta := r.inferencer.Infer(item.Title, item.Description)
	return Job{
		GUID:             guid,
		Source:           r.cfg.Source,
		Title:            item.Title,
		Company:          item.Company,
		DescriptionHTML:  res.HTML,
		DescriptionShort: res.Short,
		URL:              item.Link,
		PublishedAt:      parsePubDate(item.PubDate, r.clock.Now()),
		Slug:             enrich.Slug(item.Title, item.Company, guid),
		Tags:             res.Tags,
		Metadata:         meta,
	}
}

func (r *Runner) flush(ctx context.Context, batch []Job, counters *RunCounters) error {
	if len(batch) == 0 {
		return nil
	}
	inserted, err := r.store.InsertJobs(ctx, batch)
	if err != nil {
		return err
	}
	counters.Stored += inserted
	metrics.ObserveBatch()
	return nil
}

// teeArchive mirrors the feed stream into the blob store while it is
// consumed. Archive failures are logged, never fatal. The returned
// function must be called once the stream is fully consumed.
func (r *Runner) teeArchive(ctx context.Context, body io.Reader, runID string) (io.Reader, func()) {
	if r.archive == nil {
		return body, func() {}
	}
	pr, pw := io.Pipe()
	done := make(chan struct{})
	path := fmt.Sprintf("%s/%s.xml", r.cfg.ArchivePrefix, runID)
	go func() {
		defer close(done)
		uri, err := r.archive.PutObject(ctx, path, "application/xml", pr)
		if err != nil {
			r.logger.Warn("feed archive failed", zap.String("run_id", runID), zap.Error(err))
			// Drain so the tee reader never blocks on a dead consumer.
			_, _ = io.Copy(io.Discard, pr)
			return
		}
		r.logger.Debug("feed archived", zap.String("uri", uri))
	}()
	finish := func() {
		_ = pw.Close()
		<-done
	}
	return io.TeeReader(body, pw), finish
}

func (r *Runner) notify(ctx context.Context, report RunReport) {
	if r.stats != nil {
		total, err := r.store.CountJobs(ctx)
		if err != nil {
			r.logger.Warn("count jobs for stats failed", zap.Error(err))
		} else if err := r.stats.Record(ctx, report, total); err != nil {
			r.logger.Warn("record run stats failed", zap.Error(err))
		}
	}
	if r.publisher != nil && r.cfg.Topic != "" {
		if _, err := r.publisher.Publish(ctx, r.cfg.Topic, report); err != nil {
			r.logger.Warn("publish run report failed", zap.Error(err))
		}
	}
}

// itemGUID picks the natural key: explicit guid, else the link, else a
// synthetic ordinal id.
func itemGUID(item RawFeedItem, ordinal int) string {
	if item.GUID != "" {
		return item.GUID
	}
	if item.Link != "" {
		return item.Link
	}
	return fmt.Sprintf("job-%d", ordinal)
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePubDate(raw string, fallback time.Time) int64 {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Unix()
		}
	}
	return fallback.Unix()
}
