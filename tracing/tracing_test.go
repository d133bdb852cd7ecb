package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("turnflow", "test", exporter))

	ctx, turn := StartSpan(context.Background(), "turn", "SERVER")
	turn.WithAttributes(map[string]string{"conversation.id": "c1"}).WithInt("step.index", 2)
	current, ok := SpanFromContext(ctx)
	assert.True(t, ok)
	assert.NotNil(t, current)

	_, step := StartSpan(ctx, "step", "INTERNAL")
	EndSpan(step, errors.New("boom"))
	EndSpan(turn, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "step", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, "turn", spans[1].Name)
	assert.Contains(t, spans[1].Attributes, attribute.String("conversation.id", "c1"))
	assert.Contains(t, spans[1].Attributes, attribute.Int("step.index", 2))

	_, ok = SpanFromContext(context.Background())
	assert.False(t, ok)
	EndSpan(nil, nil)
}
