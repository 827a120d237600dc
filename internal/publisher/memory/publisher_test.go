package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vagasfeed/ingestor/internal/pipeline"
)

func TestPublishRecordsReports(t *testing.T) {
	t.Parallel()

	p := New()

	id, err := p.Publish(context.Background(), "runs", pipeline.RunReport{ID: "run-1"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	id, err = p.Publish(context.Background(), "runs", pipeline.RunReport{ID: "run-2"})
	require.NoError(t, err)
	require.Equal(t, "memory-2", id)

	events := p.Events()
	require.Len(t, events, 2)
	require.Equal(t, "runs", events[0].Topic)
	require.Equal(t, "run-1", events[0].Report.ID)
	require.Equal(t, "run-2", events[1].Report.ID)
}

func TestPublishRejectsForeignPayloads(t *testing.T) {
	t.Parallel()

	p := New()
	_, err := p.Publish(context.Background(), "runs", "not a report")
	require.Error(t, err)
	require.Empty(t, p.Events())
}

func TestEventsReturnsCopy(t *testing.T) {
	t.Parallel()

	p := New()
	_, err := p.Publish(context.Background(), "runs", pipeline.RunReport{ID: "run-1"})
	require.NoError(t, err)

	events := p.Events()
	events[0].Topic = "mutated"
	require.Equal(t, "runs", p.Events()[0].Topic)
}
