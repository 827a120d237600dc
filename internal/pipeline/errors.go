package pipeline

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by TryRun when another run holds the guard.
var ErrAlreadyRunning = errors.New("pipeline run already in progress")

// FetchError wraps a network or HTTP failure retrieving the feed. Fatal to
// the run; the next trigger retries from scratch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps a well-formedness failure in the feed stream. Items
// assembled before the error point are still processed; the run then fails.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError wraps a transactional write failure. The containing
// batch is rolled back; earlier committed batches remain valid.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist batch: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
