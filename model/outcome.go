package model

// OutcomeKind identifies what the controller does after a step runs
type OutcomeKind int

const (
	// OutcomePrompt suspends the flow on the current step
	OutcomePrompt OutcomeKind = iota
	// OutcomeNext merges the payload and advances
	OutcomeNext
	// OutcomeRestart positions the conversation at step 0 of a flow
	OutcomeRestart
	// OutcomeEnd terminates the flow
	OutcomeEnd
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePrompt:
		return "prompt"
	case OutcomeNext:
		return "next"
	case OutcomeRestart:
		return "restart"
	case OutcomeEnd:
		return "end"
	}
	return "unknown"
}

// Outcome represents the declared result of a step
type Outcome struct {
	Kind OutcomeKind
	// Message is sent with a prompt
	Message string
	// Payload is merged on next, or becomes scratch on restart
	Payload map[string]interface{}
	// FlowID is the restart target
	FlowID string
	// Messages are sent before Message
	Messages []string
}

// Prompt suspends on the current step and sends message
func Prompt(message string) Outcome {
	return Outcome{Kind: OutcomePrompt, Message: message}
}

// Next advances to the following step
func Next(payload map[string]interface{}) Outcome {
	return Outcome{Kind: OutcomeNext, Payload: payload}
}

// Restart resets the conversation to the first step of flowID
func Restart(flowID string, payload map[string]interface{}) Outcome {
	return Outcome{Kind: OutcomeRestart, FlowID: flowID, Payload: payload}
}

// End terminates the active flow
func End() Outcome {
	return Outcome{Kind: OutcomeEnd}
}

// Say returns a copy of the outcome that sends messages before its own message
func (o Outcome) Say(messages ...string) Outcome {
	ret := o
	ret.Messages = append(append([]string(nil), o.Messages...), messages...)
	return ret
}

// Replies returns messages to send in order
func (o Outcome) Replies() []string {
	ret := make([]string, 0, len(o.Messages)+1)
	for _, msg := range o.Messages {
		if msg != "" {
			ret = append(ret, msg)
		}
	}
	if o.Kind == OutcomePrompt && o.Message != "" {
		ret = append(ret, o.Message)
	}
	return ret
}
