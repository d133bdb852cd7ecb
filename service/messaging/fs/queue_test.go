package fs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/turnflow/model"
)

func TestQueue(t *testing.T) {
	testCases := []struct {
		name    string
		baseURL string
	}{
		{name: "memory", baseURL: "mem://localhost/turnflow/queue"},
		{name: "local", baseURL: t.TempDir()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			fs := afs.New()
			queue, err := NewQueue[model.Turn](ctx, fs, Config{BaseURL: tc.baseURL, MaxRetries: 1, KeepCompleted: true})
			require.NoError(t, err)

			for _, dir := range []string{queue.pendingDir, queue.processingDir, queue.completedDir, queue.failedDir, queue.dlqDir} {
				exists, err := fs.Exists(ctx, dir)
				require.NoError(t, err)
				assert.True(t, exists, dir)
			}

			for _, text := range []string{"first", "second"} {
				require.NoError(t, queue.Publish(ctx, &model.Turn{ConversationID: "c1", Input: model.TurnInput{Text: text}}))
				time.Sleep(time.Millisecond)
			}
			size, err := queue.Size(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, size)

			message, err := queue.Consume(ctx)
			require.NoError(t, err)
			require.NotNil(t, message)
			assert.Equal(t, "first", message.T().Input.Text)
			require.NoError(t, message.Ack())

			message, err = queue.Consume(ctx)
			require.NoError(t, err)
			require.NotNil(t, message)
			assert.Equal(t, "second", message.T().Input.Text)
			id := message.ID()
			require.NoError(t, message.Nack(errors.New("store unavailable")))

			retried, err := queue.Consume(ctx)
			require.NoError(t, err)
			require.NotNil(t, retried)
			assert.Equal(t, id, retried.ID())
			assert.Equal(t, 1, retried.Attempts())
			require.NoError(t, retried.Nack(errors.New("store unavailable")))

			dead, err := queue.DLQSize(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, dead)

			empty, err := queue.Consume(ctx)
			require.NoError(t, err)
			assert.Nil(t, empty)
		})
	}
}

func TestQueue_RetryDelay(t *testing.T) {
	ctx := context.Background()
	queue, err := NewQueue[model.Turn](ctx, afs.New(), Config{BaseURL: "mem://localhost/turnflow/delayed", MaxRetries: 3, RetryDelay: time.Hour})
	require.NoError(t, err)
	require.NoError(t, queue.Publish(ctx, &model.Turn{ConversationID: "c1"}))
	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, message.Nack(nil))

	next, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNewQueue_EmptyBaseURL(t *testing.T) {
	_, err := NewQueue[model.Turn](context.Background(), afs.New(), Config{})
	assert.Error(t, err)
}
