// Package memory records replies in memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/viant/turnflow/internal/clock"
	"github.com/viant/turnflow/service/channel"
)

// Channel records replies per conversation
type Channel struct {
	mu       sync.RWMutex
	messages map[string][]*channel.Message
}

var _ channel.Channel = (*Channel)(nil)

// New creates a recording channel
func New() *Channel {
	return &Channel{messages: map[string][]*channel.Message{}}
}

// Send records text
func (c *Channel) Send(ctx context.Context, conversationID string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[conversationID] = append(c.messages[conversationID], &channel.Message{
		ConversationID: conversationID,
		Text:           text,
		SentAt:         clock.Now(),
	})
	return nil
}

// Texts returns the texts sent to a conversation in order
func (c *Channel) Texts(conversationID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ret []string
	for _, message := range c.messages[conversationID] {
		ret = append(ret, message.Text)
	}
	return ret
}

// Since returns messages sent to a conversation after t
func (c *Channel) Since(conversationID string, t time.Time) []*channel.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ret []*channel.Message
	for _, message := range c.messages[conversationID] {
		if message.SentAt.After(t) {
			copied := *message
			ret = append(ret, &copied)
		}
	}
	return ret
}

// Reset forgets messages of a conversation
func (c *Channel) Reset(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.messages, conversationID)
}
