// Package interrupt defines global commands evaluated before a turn reaches the active step.
package interrupt

import "strings"

// Action describes the effect of an interrupt on the conversation
type Action string

const (
	// ActionReply sends a message and leaves the conversation untouched
	ActionReply Action = "reply"
	// ActionCancel sends a message and terminates the active flow
	ActionCancel Action = "cancel"
)

// Interrupt is a global command
type Interrupt struct {
	Name    string   `json:"name" yaml:"name"`
	Phrases []string `json:"phrases" yaml:"phrases"`
	Action  Action   `json:"action" yaml:"action"`
	Message string   `json:"message" yaml:"message"`
}

// Help returns the help interrupt
func Help(message string) *Interrupt {
	if message == "" {
		message = "Answer the question above to continue, or type cancel to start over."
	}
	return &Interrupt{Name: "help", Phrases: []string{"help", "?"}, Action: ActionReply, Message: message}
}

// Cancel returns the cancel interrupt
func Cancel() *Interrupt {
	return &Interrupt{Name: "cancel", Phrases: []string{"cancel", "quit"}, Action: ActionCancel, Message: "Cancelled."}
}

// Set matches input against interrupts
type Set struct {
	byPhrase map[string]*Interrupt
}

// New creates an interrupt set; later interrupts win on phrase conflicts
func New(interrupts ...*Interrupt) *Set {
	ret := &Set{byPhrase: map[string]*Interrupt{}}
	for _, item := range interrupts {
		if item == nil {
			continue
		}
		for _, phrase := range item.Phrases {
			ret.byPhrase[normalize(phrase)] = item
		}
	}
	return ret
}

// Defaults returns help and cancel
func Defaults() *Set {
	return New(Help(""), Cancel())
}

// Match returns the interrupt whose phrase equals text, ignoring case and surrounding space
func (s *Set) Match(text string) (*Interrupt, bool) {
	if s == nil {
		return nil, false
	}
	ret, ok := s.byPhrase[normalize(text)]
	return ret, ok
}

// Len returns number of phrases
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byPhrase)
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
