package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_TopIntent(t *testing.T) {
	testCases := []struct {
		name     string
		result   *Result
		expected string
	}{
		{name: "nil", expected: NoneIntent},
		{name: "explicit", result: &Result{Intent: "Confirm"}, expected: "Confirm"},
		{name: "scored", result: &Result{Intents: map[string]float64{"Cancel": 0.2, "Confirm": 0.9}}, expected: "Confirm"},
		{name: "tie resolves by name", result: &Result{Intents: map[string]float64{"b": 0.5, "a": 0.5}}, expected: "a"},
		{name: "empty", result: &Result{}, expected: NoneIntent},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.result.TopIntent())
		})
	}
}

func TestResult_Entity(t *testing.T) {
	r := &Result{Entities: map[string]interface{}{
		"city":  []interface{}{"Paris"},
		"date":  "tomorrow",
		"names": []string{"a", "b"},
		"count": 3,
	}}
	v, ok := r.Entity("city")
	assert.True(t, ok)
	assert.Equal(t, "Paris", v)
	v, _ = r.Entity("date")
	assert.Equal(t, "tomorrow", v)
	v, _ = r.Entity("names")
	assert.Equal(t, "a", v)
	_, ok = r.Entity("count")
	assert.False(t, ok)
	_, ok = r.Entity("missing")
	assert.False(t, ok)
}

func TestNop(t *testing.T) {
	assert.False(t, Nop().Configured())
	result, err := Nop().Classify(context.Background(), "hi")
	assert.NoError(t, err)
	assert.True(t, result.Unconfigured)
}
