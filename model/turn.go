package model

import "time"

// TurnInput represents a single user message
type TurnInput struct {
	ID         string            `json:"id,omitempty" yaml:"id,omitempty"`
	Text       string            `json:"text" yaml:"text"`
	ReceivedAt time.Time         `json:"receivedAt,omitempty" yaml:"receivedAt,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewTurnInput creates a turn input
func NewTurnInput(text string) *TurnInput {
	return &TurnInput{Text: text}
}

// Turn pairs a turn input with its conversation; used by queue based dispatch
type Turn struct {
	ConversationID string    `json:"conversationId"`
	Input          TurnInput `json:"input"`
}

// Result represents how a turn left the conversation
type Result string

const (
	// ResultAwaitingInput means the flow is parked on a prompt
	ResultAwaitingInput Result = "awaitingInput"
	// ResultAdvanced means the flow moved to the next step
	ResultAdvanced Result = "advanced"
	// ResultRestarted means the flow was reset to its first step
	ResultRestarted Result = "restarted"
	// ResultCompleted means the flow ended
	ResultCompleted Result = "completed"
)

// TurnReport describes a handled turn
type TurnReport struct {
	ConversationID string   `json:"conversationId"`
	TurnID         string   `json:"turnId"`
	Result         Result   `json:"result"`
	FlowID         string   `json:"flowId"`
	Step           string   `json:"step"`
	StepIndex      int      `json:"stepIndex"`
	NextFlowID     string   `json:"nextFlowId,omitempty"`
	NextStepIndex  int      `json:"nextStepIndex"`
	Messages       []string `json:"messages,omitempty"`
	// Interrupt is set when a global command handled the turn
	Interrupt string        `json:"interrupt,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}
