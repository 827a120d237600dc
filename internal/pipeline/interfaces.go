package pipeline

import (
	"context"
	"io"
	"time"
)

// FeedFetcher retrieves the configured feed as a byte stream.
type FeedFetcher interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// ItemSource yields assembled feed items one at a time. Next returns io.EOF
// when the stream is exhausted and a *ParseError on malformed input.
type ItemSource interface {
	Next() (RawFeedItem, error)
}

// JobStore persists normalized jobs and their tag associations.
type JobStore interface {
	// ExistsGUID reports whether a job with the given guid is already stored.
	ExistsGUID(ctx context.Context, guid string) (bool, error)

	// InsertJobs writes one batch inside a single transaction, ignoring
	// duplicate guids/slugs, and returns the number of rows actually
	// inserted.
	InsertJobs(ctx context.Context, jobs []Job) (int, error)

	// CountJobs returns the total number of stored jobs.
	CountJobs(ctx context.Context) (int64, error)

	// TrimToMax deletes the oldest rows until at most max remain and
	// returns the number deleted.
	TrimToMax(ctx context.Context, max int64) (int64, error)
}

// Rewriter produces the final short/long description and tags for an item.
// It never fails: AI errors are recovered via the deterministic fallback.
type Rewriter interface {
	Rewrite(ctx context.Context, title, company, html string, useAI bool) RewriteResult
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Publisher pushes run-completion events downstream.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// StatsRecorder mirrors run results into the display-counter cache.
type StatsRecorder interface {
	Record(ctx context.Context, report RunReport, totalJobs int64) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside tests.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }
