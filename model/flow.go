package model

import (
	"context"
	"fmt"

	"github.com/viant/turnflow/model/state"
)

// StepFunc handles a single turn for a step. The scratch passed in is a copy;
// changes to it are discarded, use Next or Restart payloads instead.
type StepFunc func(ctx context.Context, scratch state.Scratch, input *TurnInput) (Outcome, error)

// Step represents a named unit of a flow
type Step struct {
	Name string   `json:"name" yaml:"name"`
	Run  StepFunc `json:"-" yaml:"-"`
}

// NewStep creates a step
func NewStep(name string, run StepFunc) *Step {
	return &Step{Name: name, Run: run}
}

// Flow represents an ordered sequence of steps
type Flow struct {
	// ID uniquely identifies the flow within a controller
	ID string `json:"id" yaml:"id"`

	// Description provides a human-readable description of the flow
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Steps []*Step `json:"steps" yaml:"steps"`
}

// NewFlow creates a flow
func NewFlow(id string, steps ...*Step) *Flow {
	return &Flow{ID: id, Steps: steps}
}

// Len returns number of steps
func (f *Flow) Len() int {
	return len(f.Steps)
}

// Step returns step at the index
func (f *Flow) Step(index int) (*Step, bool) {
	if index < 0 || index >= len(f.Steps) {
		return nil, false
	}
	return f.Steps[index], true
}

// StepNames returns step names in order
func (f *Flow) StepNames() []string {
	ret := make([]string, 0, len(f.Steps))
	for _, step := range f.Steps {
		if step == nil {
			continue
		}
		ret = append(ret, step.Name)
	}
	return ret
}

// Validate performs structural validation of the flow. The returned slice is
// empty when the flow is sound.
func (f *Flow) Validate() []error {
	var issues []error
	if f.ID == "" {
		issues = append(issues, fmt.Errorf("flow id is empty"))
	}
	if len(f.Steps) == 0 {
		issues = append(issues, fmt.Errorf("flow %q has no steps", f.ID))
		return issues
	}
	seen := map[string]bool{}
	for i, step := range f.Steps {
		if step == nil {
			issues = append(issues, fmt.Errorf("flow %q step[%d] is nil", f.ID, i))
			continue
		}
		if step.Name == "" {
			issues = append(issues, fmt.Errorf("flow %q step[%d] has no name", f.ID, i))
		} else if seen[step.Name] {
			issues = append(issues, fmt.Errorf("flow %q has duplicate step %q", f.ID, step.Name))
		}
		seen[step.Name] = true
		if step.Run == nil {
			issues = append(issues, fmt.Errorf("flow %q step %q has no handler", f.ID, step.Name))
		}
	}
	return issues
}
