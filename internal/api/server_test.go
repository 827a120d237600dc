package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vagasfeed/ingestor/internal/pipeline"
)

type fakeRunner struct {
	report pipeline.RunReport
	err    error
	last   *pipeline.RunReport
}

func (f *fakeRunner) TryRun(context.Context) (pipeline.RunReport, error) {
	return f.report, f.err
}

func (f *fakeRunner) LastReport() (pipeline.RunReport, bool) {
	if f.last == nil {
		return pipeline.RunReport{}, false
	}
	return *f.last, true
}

func doRequest(t *testing.T, runner Runner, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(runner, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeRunner{}, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTriggerRunCompleted(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{report: pipeline.RunReport{
		ID:     "run-1",
		Status: pipeline.RunStatusSucceeded,
		Counters: pipeline.RunCounters{
			Processed: 10,
			Stored:    4,
		},
	}}

	rec := doRequest(t, runner, http.MethodPost, "/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string             `json:"status"`
		Report pipeline.RunReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "completed", resp.Status)
	require.Equal(t, "run-1", resp.Report.ID)
	require.Equal(t, 4, resp.Report.Counters.Stored)
}

func TestTriggerRunConflictWhenBusy(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		report: pipeline.RunReport{Status: pipeline.RunStatusSkipped},
		err:    pipeline.ErrAlreadyRunning,
	}

	rec := doRequest(t, runner, http.MethodPost, "/v1/runs")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"status":"already_running"}`, rec.Body.String())
}

func TestTriggerRunFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		report: pipeline.RunReport{ID: "run-2", Status: pipeline.RunStatusFailed},
		err:    errors.New("fetch feed: boom"),
	}

	rec := doRequest(t, runner, http.MethodPost, "/v1/runs")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "failed", resp["status"])
	require.Contains(t, resp["error"], "boom")
}

func TestLatestRunNotFound(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeRunner{}, http.MethodGet, "/v1/runs/latest")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestRun(t *testing.T) {
	t.Parallel()

	report := pipeline.RunReport{
		ID:         "run-3",
		Status:     pipeline.RunStatusSucceeded,
		StartedAt:  time.Unix(1756000000, 0).UTC(),
		FinishedAt: time.Unix(1756000060, 0).UTC(),
	}
	rec := doRequest(t, &fakeRunner{last: &report}, http.MethodGet, "/v1/runs/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var got pipeline.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "run-3", got.ID)
	require.Equal(t, pipeline.RunStatusSucceeded, got.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeRunner{}, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}

type panicRunner struct{ fakeRunner }

func (*panicRunner) TryRun(context.Context) (pipeline.RunReport, error) {
	panic("boom")
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &panicRunner{}, http.MethodPost, "/v1/runs")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal error")
}
