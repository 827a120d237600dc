// Package pipeline defines core types shared across subsystems.
package pipeline

import "time"

// RawFeedItem is one item assembled from the feed stream. It lives only
// until the item is classified: matched items become Jobs, the rest are
// dropped.
type RawFeedItem struct {
	Title       string
	Description string
	Company     string
	Link        string
	GUID        string
	PubDate     string
}

// Job is a normalized posting ready for persistence.
type Job struct {
	GUID             string         `json:"guid"`
	Source           string         `json:"source"`
	Title            string         `json:"title"`
	Company          string         `json:"company"`
	DescriptionHTML  string         `json:"description_html"`
	DescriptionShort string         `json:"description_short"`
	URL              string         `json:"url"`
	PublishedAt      int64          `json:"published_at"`
	Slug             string         `json:"slug"`
	Tags             []string       `json:"tags"`
	Metadata         any            `json:"metadata,omitempty"`
}

// RunStatus represents the outcome of a pipeline run.
type RunStatus string

// Run status values reported by the runner.
const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// RunCounters tracks per-run aggregate stats.
type RunCounters struct {
	Processed  int `json:"processed"`
	Matched    int `json:"matched"`
	AIEnhanced int `json:"ai_enhanced"`
	Fallback   int `json:"fallback"`
	Skipped    int `json:"skipped"`
	Stored     int `json:"stored"`
	Trimmed    int `json:"trimmed"`
}

// RunReport is the record of one pipeline run.
type RunReport struct {
	ID         string      `json:"id"`
	Status     RunStatus   `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Counters   RunCounters `json:"counters"`
	ErrorText  string      `json:"error_text,omitempty"`
}

// RewriteResult is the output of the content rewriter for one item.
type RewriteResult struct {
	Short  string
	HTML   string
	Tags   []string
	UsedAI bool
}
