package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/turnflow/model"
)

func TestDeltaOf(t *testing.T) {
	testCases := []struct {
		result model.Result
		expect Delta
	}{
		{result: model.ResultAwaitingInput, expect: Delta{Turns: 1, Prompts: 1}},
		{result: model.ResultAdvanced, expect: Delta{Turns: 1, Advances: 1}},
		{result: model.ResultRestarted, expect: Delta{Turns: 1, Restarts: 1}},
		{result: model.ResultCompleted, expect: Delta{Turns: 1, Completions: 1}},
	}
	for _, tc := range testCases {
		t.Run(string(tc.result), func(t *testing.T) {
			assert.Equal(t, tc.expect, DeltaOf(tc.result))
		})
	}
}

func TestProgress_Update(t *testing.T) {
	var last Progress
	var mu sync.Mutex
	p := New(func(snapshot Progress) {
		mu.Lock()
		last = snapshot
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Update(DeltaOf(model.ResultAdvanced))
		}()
	}
	wg.Wait()
	p.Update(Delta{Failures: 1})

	snapshot := p.Snapshot()
	assert.Equal(t, 50, snapshot.Turns)
	assert.Equal(t, 50, snapshot.Advances)
	assert.Equal(t, 1, snapshot.Failures)
	mu.Lock()
	assert.Equal(t, 1, last.Failures)
	mu.Unlock()

	var nilProgress *Progress
	nilProgress.Update(Delta{Turns: 1})
	assert.Equal(t, 0, nilProgress.Snapshot().Turns)
}
