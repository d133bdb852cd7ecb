package model

import "context"

// StepContext describes the step being executed
type StepContext struct {
	ConversationID string
	TurnID         string
	FlowID         string
	Step           string
	Index          int
	// Resumed is true when the step prompted on an earlier turn and now receives the reply
	Resumed bool
}

type stepContextKey struct{}

// WithStepContext returns ctx carrying sc
func WithStepContext(ctx context.Context, sc *StepContext) context.Context {
	return context.WithValue(ctx, stepContextKey{}, sc)
}

// StepContextFrom returns the step context or nil
func StepContextFrom(ctx context.Context) *StepContext {
	if ctx == nil {
		return nil
	}
	sc, _ := ctx.Value(stepContextKey{}).(*StepContext)
	return sc
}

// Resumed reports whether the executing step is receiving a reply to its own prompt
func Resumed(ctx context.Context) bool {
	if sc := StepContextFrom(ctx); sc != nil {
		return sc.Resumed
	}
	return false
}
