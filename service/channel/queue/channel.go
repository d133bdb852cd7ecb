// Package queue publishes replies to a message queue drained by an external transport.
package queue

import (
	"context"
	"fmt"

	"github.com/viant/turnflow/internal/clock"
	"github.com/viant/turnflow/internal/idgen"
	"github.com/viant/turnflow/service/channel"
	"github.com/viant/turnflow/service/messaging"
)

// Channel publishes channel.Message payloads
type Channel struct {
	queue messaging.Queue[channel.Message]
}

var _ channel.Channel = (*Channel)(nil)

// New creates a queue backed channel
func New(queue messaging.Queue[channel.Message]) *Channel {
	return &Channel{queue: queue}
}

// Send publishes text
func (c *Channel) Send(ctx context.Context, conversationID string, text string) error {
	message := &channel.Message{
		ID:             idgen.New(),
		ConversationID: conversationID,
		Text:           text,
		SentAt:         clock.Now(),
	}
	if err := c.queue.Publish(ctx, message); err != nil {
		return fmt.Errorf("failed to publish reply for %s: %w", conversationID, err)
	}
	return nil
}
