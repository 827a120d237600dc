// Package feed retrieves and incrementally parses the external job feed.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vagasfeed/ingestor/internal/pipeline"
)

// HTTPFetcher retrieves the feed from a fixed URL as a byte stream. No
// retries: a failed fetch aborts the run and the next trigger starts over.
type HTTPFetcher struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewHTTPFetcher builds a fetcher for the given feed URL. When client is
// nil a default client without a timeout is used; the feed stream is
// consumed incrementally and may legitimately stay open for a while.
func NewHTTPFetcher(url, userAgent string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 0}
	}
	return &HTTPFetcher{url: url, userAgent: userAgent, client: client}
}

// Fetch issues a single GET and returns the response body for streaming
// consumption. Network failures and non-2xx statuses become a FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &pipeline.FetchError{URL: f.url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &pipeline.FetchError{URL: f.url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if closeErr := resp.Body.Close(); closeErr != nil {
			return nil, &pipeline.FetchError{URL: f.url, Err: fmt.Errorf("status %d (close body: %v)", resp.StatusCode, closeErr)}
		}
		return nil, &pipeline.FetchError{
			URL: f.url,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
		}
	}
	return resp.Body, nil
}

// URL returns the configured feed URL.
func (f *HTTPFetcher) URL() string { return f.url }

var _ pipeline.FeedFetcher = (*HTTPFetcher)(nil)

// DefaultClient returns an http.Client suitable for feed fetching: connect
// timeouts apply per dial, but no overall deadline is imposed on the body.
func DefaultClient(connectTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = connectTimeout
	return &http.Client{Transport: transport}
}
