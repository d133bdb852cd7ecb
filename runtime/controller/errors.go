package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateFlow is returned when a flow id is registered twice
	ErrDuplicateFlow = errors.New("flow already registered")
	// ErrUnknownFlow is returned when a conversation or restart refers to an unregistered flow
	ErrUnknownFlow = errors.New("unknown flow")
	// ErrStepIndexOutOfRange is returned when a persisted step index does not exist in its flow
	ErrStepIndexOutOfRange = errors.New("step index out of range")
	// ErrInvalidFlow is returned when a flow fails validation
	ErrInvalidFlow = errors.New("invalid flow")
	// ErrInvalidConversationID is returned for an empty conversation id
	ErrInvalidConversationID = errors.New("invalid conversation id")
)

// StoreError reports a failed state load or save; nothing was sent and durable state is the pre-turn state
type StoreError struct {
	Op             string
	ConversationID string
	Err            error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s conversation %s: %v", e.Op, e.ConversationID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ChannelError reports a failed reply delivery; the turn's state change was already persisted
type ChannelError struct {
	ConversationID string
	// Delivered counts replies sent before the failure
	Delivered int
	Err       error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("failed to deliver reply %d to conversation %s: %v", e.Delivered+1, e.ConversationID, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// StepError reports a failing step handler; conversation state is unchanged
type StepError struct {
	ConversationID string
	FlowID         string
	Step           string
	Index          int
	Err            error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s[%d] %q failed for conversation %s: %v", e.FlowID, e.Index, e.Step, e.ConversationID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true when the turn may be safely redelivered
func IsRetryable(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}
