package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/turnflow/service/channel"
	"github.com/viant/turnflow/service/messaging"
	"github.com/viant/turnflow/service/messaging/fs"
	"github.com/viant/turnflow/service/messaging/memory"
)

func TestChannel_Send(t *testing.T) {
	ctx := context.Background()
	fsQueue, err := fs.NewQueue[channel.Message](ctx, afs.New(), fs.Config{BaseURL: "mem://localhost/turnflow/replies"})
	require.NoError(t, err)
	testCases := []struct {
		name  string
		queue messaging.Queue[channel.Message]
	}{
		{name: "memory", queue: memory.NewQueue[channel.Message](memory.DefaultConfig())},
		{name: "fs", queue: fsQueue},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ch := New(tc.queue)
			require.NoError(t, ch.Send(ctx, "c1", "What can I help you with today?"))

			consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			message, err := tc.queue.Consume(consumeCtx)
			require.NoError(t, err)
			require.NotNil(t, message)
			assert.Equal(t, "c1", message.T().ConversationID)
			assert.Equal(t, "What can I help you with today?", message.T().Text)
			assert.NotEmpty(t, message.T().ID)
			assert.False(t, message.T().SentAt.IsZero())
			assert.NoError(t, message.Ack())
		})
	}
}
