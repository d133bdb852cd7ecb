// Package event publishes turn lifecycle events over a messaging queue.
package event

import (
	"time"

	"github.com/viant/turnflow/internal/clock"
)

// TypeTurnCompleted is emitted after every handled turn
const TypeTurnCompleted = "turnCompleted"

// Context identifies the turn an event belongs to
type Context struct {
	ConversationID string `json:"conversationId"`
	TurnID         string `json:"turnId"`
	FlowID         string `json:"flowId"`
	Step           string `json:"step"`
	EventType      string `json:"eventType"`
	TimeTakenMs    int    `json:"timeTakenMs"`
}

// Event wraps a payload with its context
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
