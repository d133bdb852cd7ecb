// Package classifier defines the natural-language classifier contract used by
// flow steps to map free text onto intents.
package classifier

import (
	"context"
	"sort"
)

// Classifier maps an utterance to intents. Implementations must report a
// missing configuration through Result.Unconfigured rather than an error.
type Classifier interface {
	// Name identifies the classifier in logs and user facing notes
	Name() string
	// Configured reports whether the classifier can be queried
	Configured() bool
	// Classify queries the classifier once
	Classify(ctx context.Context, utterance string) (*Result, error)
}

// NoneIntent is reported when nothing matched
const NoneIntent = "None"

// Result represents a classification
type Result struct {
	Text         string                 `json:"text"`
	Intent       string                 `json:"intent"`
	Confidence   float64                `json:"confidence"`
	Intents      map[string]float64     `json:"intents,omitempty"`
	Entities     map[string]interface{} `json:"entities,omitempty"`
	Unconfigured bool                   `json:"unconfigured,omitempty"`
}

// NotConfigured returns a result for a classifier lacking configuration
func NotConfigured() *Result {
	return &Result{Intent: NoneIntent, Unconfigured: true}
}

// TopIntent returns the highest scoring intent, or NoneIntent
func (r *Result) TopIntent() string {
	if r == nil {
		return NoneIntent
	}
	if r.Intent != "" {
		return r.Intent
	}
	if len(r.Intents) == 0 {
		return NoneIntent
	}
	names := make([]string, 0, len(r.Intents))
	for name := range r.Intents {
		names = append(names, name)
	}
	sort.Strings(names)
	top := names[0]
	for _, name := range names[1:] {
		if r.Intents[name] > r.Intents[top] {
			top = name
		}
	}
	return top
}

// Entity returns the first string value of an entity
func (r *Result) Entity(name string) (string, bool) {
	if r == nil || r.Entities == nil {
		return "", false
	}
	switch actual := r.Entities[name].(type) {
	case string:
		return actual, actual != ""
	case []string:
		if len(actual) > 0 {
			return actual[0], true
		}
	case []interface{}:
		if len(actual) > 0 {
			if text, ok := actual[0].(string); ok {
				return text, true
			}
		}
	}
	return "", false
}

type nop struct{}

func (nop) Name() string { return "NLU" }

func (nop) Configured() bool { return false }

func (nop) Classify(context.Context, string) (*Result, error) {
	return NotConfigured(), nil
}

// Nop returns a classifier that is never configured
func Nop() Classifier {
	return nop{}
}
