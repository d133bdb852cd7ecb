package state

import "time"

// Conversation represents the persisted state of a single conversation
type Conversation struct {
	// ID is the conversation identifier supplied by the caller
	ID string `json:"id" yaml:"id"`

	// ActiveFlowID is empty when no flow is running
	ActiveFlowID string `json:"activeFlowId,omitempty" yaml:"activeFlowId,omitempty"`

	// CurrentStepIndex points at the step that handles the next turn
	CurrentStepIndex int `json:"currentStepIndex" yaml:"currentStepIndex"`

	// Scratch carries values collected by steps of the active flow
	Scratch Scratch `json:"scratch,omitempty" yaml:"scratch,omitempty"`

	// Awaiting is set when the current step prompted and waits for a reply
	Awaiting bool `json:"awaiting,omitempty" yaml:"awaiting,omitempty"`

	// Turns counts handled turns
	Turns int `json:"turns" yaml:"turns"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// NewConversation creates an idle conversation
func NewConversation(id string, now time.Time) *Conversation {
	return &Conversation{ID: id, CreatedAt: now, UpdatedAt: now}
}

// IsActive returns true when a flow is running
func (c *Conversation) IsActive() bool {
	return c != nil && c.ActiveFlowID != ""
}

// Start positions the conversation at the first step of flowID with the supplied scratch
func (c *Conversation) Start(flowID string, payload map[string]interface{}) {
	c.ActiveFlowID = flowID
	c.CurrentStepIndex = 0
	c.Scratch = Scratch(nil).Merge(payload)
	c.Awaiting = false
}

// Advance merges payload into scratch and moves to the next step
func (c *Conversation) Advance(payload map[string]interface{}) {
	c.Scratch = c.Scratch.Merge(payload)
	c.CurrentStepIndex++
	c.Awaiting = false
}

// Park keeps the conversation on the current step until the next reply
func (c *Conversation) Park() {
	c.Awaiting = true
}

// Clear terminates the active flow
func (c *Conversation) Clear() {
	c.ActiveFlowID = ""
	c.CurrentStepIndex = 0
	c.Scratch = nil
	c.Awaiting = false
}

// Clone returns a deep copy
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	ret := *c
	ret.Scratch = c.Scratch.Clone()
	return &ret
}
