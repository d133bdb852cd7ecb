// Package channel defines where the replies of a conversation are delivered.
package channel

import (
	"context"
	"time"
)

// Channel delivers a reply to the user of a conversation
type Channel interface {
	Send(ctx context.Context, conversationID string, text string) error
}

// Func adapts a function to Channel
type Func func(ctx context.Context, conversationID string, text string) error

// Send calls f
func (f Func) Send(ctx context.Context, conversationID string, text string) error {
	return f(ctx, conversationID, text)
}

// Message is an outbound reply
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Text           string    `json:"text"`
	SentAt         time.Time `json:"sentAt"`
}
