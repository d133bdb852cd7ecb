package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/turnflow/model/state"
)

func noop(context.Context, state.Scratch, *TurnInput) (Outcome, error) {
	return End(), nil
}

func TestFlow_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		flow   *Flow
		issues int
	}{
		{
			name:   "valid",
			flow:   NewFlow("f", NewStep("a", noop), NewStep("b", noop)),
			issues: 0,
		},
		{
			name:   "no steps",
			flow:   NewFlow("f"),
			issues: 1,
		},
		{
			name:   "missing id and handler",
			flow:   NewFlow("", NewStep("a", nil)),
			issues: 2,
		},
		{
			name:   "duplicate step",
			flow:   NewFlow("f", NewStep("a", noop), NewStep("a", noop)),
			issues: 1,
		},
		{
			name:   "unnamed and nil step",
			flow:   NewFlow("f", NewStep("", noop), nil),
			issues: 2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, tc.flow.Validate(), tc.issues)
		})
	}
}

func TestFlow_Step(t *testing.T) {
	flow := NewFlow("f", NewStep("a", noop), NewStep("b", noop))
	step, ok := flow.Step(1)
	assert.True(t, ok)
	assert.Equal(t, "b", step.Name)
	_, ok = flow.Step(2)
	assert.False(t, ok)
	_, ok = flow.Step(-1)
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, flow.StepNames())
	assert.Equal(t, 2, flow.Len())
}

func TestOutcome_Replies(t *testing.T) {
	testCases := []struct {
		name     string
		outcome  Outcome
		expected []string
	}{
		{name: "prompt", outcome: Prompt("hi?"), expected: []string{"hi?"}},
		{name: "prompt with preface", outcome: Prompt("hi?").Say("one", "two"), expected: []string{"one", "two", "hi?"}},
		{name: "next silent", outcome: Next(nil), expected: []string{}},
		{name: "next with message", outcome: Next(nil).Say("Got it!"), expected: []string{"Got it!"}},
		{name: "end with note", outcome: End().Say("bye"), expected: []string{"bye"}},
		{name: "restart", outcome: Restart("f", nil).Say("", "again"), expected: []string{"again"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.outcome.Replies())
		})
	}
}

func TestOutcome_SayDoesNotAlias(t *testing.T) {
	base := End().Say("a")
	first := base.Say("b")
	second := base.Say("c")
	assert.Equal(t, []string{"a", "b"}, first.Messages)
	assert.Equal(t, []string{"a", "c"}, second.Messages)
	assert.Equal(t, "end", base.Kind.String())
}
