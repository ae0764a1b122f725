package sinks

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/jobboard-harvester/internal/progress"
)

func TestSpinnerSinkTally(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewSpinnerSink(&buf)
	ctx := context.Background()

	require.NoError(t, sink.Consume(ctx, []progress.Event{
		{Stage: progress.StageRunStart, TS: time.Now()},
		{Stage: progress.StageDispatchStart, Count: 3},
	}))
	require.Equal(t, "Procesando ofertas 0/3 (0 no disponibles)", sink.Line())

	require.NoError(t, sink.Consume(ctx, []progress.Event{
		{Stage: progress.StageListingDone, URL: "a", StatusClass: progress.Status2xx},
		{Stage: progress.StageListingDone, URL: "b", StatusClass: progress.Status4xx, Unavailable: true},
	}))
	require.Equal(t, "Procesando ofertas 2/3 (1 no disponibles)", sink.Line())

	require.NoError(t, sink.Consume(ctx, []progress.Event{{Stage: progress.StageRunDone}}))
	require.NoError(t, sink.Close(ctx))
}
