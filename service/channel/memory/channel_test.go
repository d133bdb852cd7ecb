package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Add(-time.Second)
	ch := New()
	require.NoError(t, ch.Send(ctx, "c1", "hello"))
	require.NoError(t, ch.Send(ctx, "c1", "world"))
	require.NoError(t, ch.Send(ctx, "c2", "other"))

	assert.Equal(t, []string{"hello", "world"}, ch.Texts("c1"))
	assert.Equal(t, []string{"other"}, ch.Texts("c2"))
	assert.Len(t, ch.Since("c1", start), 2)

	ch.Reset("c1")
	assert.Empty(t, ch.Texts("c1"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, ch.Send(cancelled, "c1", "late"), context.Canceled)
	assert.Empty(t, ch.Texts("c1"))
}
