// Package stats mirrors run results into the redis cache read by the
// display-counter consumer.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vagasfeed/ingestor/internal/pipeline"
)

// Key names shared with the rendering layer.
const (
	keyJobsTotal = "ingestor:jobs_total"
	keyLastRun   = "ingestor:last_run"
)

// Recorder writes run summaries to redis. Failures here are advisory;
// callers log and move on.
type Recorder struct {
	client *redis.Client
}

// NewRecorder parses redisURL and verifies connectivity.
func NewRecorder(ctx context.Context, redisURL string) (*Recorder, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Recorder{client: client}, nil
}

// Record stores the current job total and the last run report.
func (r *Recorder) Record(ctx context.Context, report pipeline.RunReport, totalJobs int64) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, keyJobsTotal, totalJobs, 0)
	pipe.Set(ctx, keyLastRun, payload, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (r *Recorder) Close() error {
	return r.client.Close()
}

var _ pipeline.StatsRecorder = (*Recorder)(nil)
