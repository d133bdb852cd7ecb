package state

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestConversation_Lifecycle(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewConversation("c1", now)
	assert.False(t, c.IsActive())

	c.Start("booking", map[string]interface{}{"restartMsg": "again"})
	assert.True(t, c.IsActive())
	assert.Equal(t, 0, c.CurrentStepIndex)
	assert.Equal(t, "again", c.Scratch.String("restartMsg"))

	c.Park()
	assert.True(t, c.Awaiting)

	c.Advance(map[string]interface{}{"utterance": "hi"})
	assert.False(t, c.Awaiting)
	assert.Equal(t, 1, c.CurrentStepIndex)
	assert.Equal(t, "again", c.Scratch.String("restartMsg"))
	assert.Equal(t, "hi", c.Scratch.String("utterance"))

	c.Clear()
	assert.False(t, c.IsActive())
	assert.Equal(t, 0, c.CurrentStepIndex)
	assert.Nil(t, c.Scratch)
}

func TestConversation_Clone(t *testing.T) {
	c := &Conversation{
		ID:           "c1",
		ActiveFlowID: "f",
		Scratch: Scratch{
			"nested": map[string]interface{}{"k": "v"},
			"list":   []interface{}{"a", map[string]interface{}{"x": 1}},
		},
	}
	cloned := c.Clone()
	if diff := cmp.Diff(c, cloned); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	cloned.Scratch["nested"].(map[string]interface{})["k"] = "changed"
	cloned.Scratch["extra"] = true
	assert.Equal(t, "v", c.Scratch["nested"].(map[string]interface{})["k"])
	assert.False(t, c.Scratch.Has("extra"))

	var nilConversation *Conversation
	assert.Nil(t, nilConversation.Clone())
}

func TestScratch_Merge(t *testing.T) {
	testCases := []struct {
		name     string
		scratch  Scratch
		payload  map[string]interface{}
		expected Scratch
	}{
		{
			name:     "keeps unrelated keys",
			scratch:  Scratch{"a": 1},
			payload:  map[string]interface{}{"b": 2},
			expected: Scratch{"a": 1, "b": 2},
		},
		{
			name:     "overwrites existing key",
			scratch:  Scratch{"a": 1},
			payload:  map[string]interface{}{"a": 3},
			expected: Scratch{"a": 3},
		},
		{
			name:     "nil scratch",
			payload:  map[string]interface{}{"a": 1},
			expected: Scratch{"a": 1},
		},
		{
			name:     "empty payload",
			scratch:  Scratch{"a": 1},
			expected: Scratch{"a": 1},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.scratch.Merge(tc.payload))
		})
	}
}

func TestScratch_Accessors(t *testing.T) {
	s := Scratch{"text": "hello", "flag": "true", "count": "3", "number": 7}
	assert.Equal(t, "hello", s.String("text"))
	assert.Equal(t, "7", s.String("number"))
	assert.Equal(t, "", s.String("missing"))
	assert.True(t, s.Bool("flag"))
	assert.False(t, s.Bool("missing"))
	assert.Equal(t, 3, s.Int("count"))
	assert.Equal(t, 0, s.Int("missing"))
}

func TestScratch_Decode(t *testing.T) {
	type booking struct {
		Destination string
		Origin      string
	}
	s := Scratch{"Destination": "Paris", "Origin": "Seattle", "other": 1}
	var b booking
	assert.NoError(t, s.Decode(&b))
	assert.Equal(t, "Paris", b.Destination)
	assert.Equal(t, "Seattle", b.Origin)
	assert.Error(t, s.Decode(nil))
}
