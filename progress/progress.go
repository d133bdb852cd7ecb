package progress

import (
	"sync"
	"time"

	"github.com/viant/turnflow/model"
)

// Delta represents an incremental counter change
type Delta struct {
	Turns       int
	Prompts     int
	Advances    int
	Restarts    int
	Completions int
	Interrupts  int
	Failures    int
}

// DeltaOf returns the delta for a turn outcome
func DeltaOf(result model.Result) Delta {
	ret := Delta{Turns: 1}
	switch result {
	case model.ResultAwaitingInput:
		ret.Prompts = 1
	case model.ResultAdvanced:
		ret.Advances = 1
	case model.ResultRestarted:
		ret.Restarts = 1
	case model.ResultCompleted:
		ret.Completions = 1
	}
	return ret
}

// Progress keeps aggregated turn counters; it is safe for concurrent use
type Progress struct {
	StartedAt   time.Time `json:"startedAt"`
	Turns       int       `json:"turns"`
	Prompts     int       `json:"prompts"`
	Advances    int       `json:"advances"`
	Restarts    int       `json:"restarts"`
	Completions int       `json:"completions"`
	Interrupts  int       `json:"interrupts"`
	Failures    int       `json:"failures"`

	mu       sync.Mutex
	onChange func(Progress)
}

// New creates a tracker
func New(onChange func(Progress)) *Progress {
	return &Progress{StartedAt: time.Now(), onChange: onChange}
}

// Update applies the supplied delta; the onChange callback runs outside the lock
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.Turns += d.Turns
	p.Prompts += d.Prompts
	p.Advances += d.Advances
	p.Restarts += d.Restarts
	p.Completions += d.Completions
	p.Interrupts += d.Interrupts
	p.Failures += d.Failures
	snapshot := p.copy()
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copy()
}

// OnChange replaces the change callback; nil disables it
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

func (p *Progress) copy() Progress {
	return Progress{
		StartedAt:   p.StartedAt,
		Turns:       p.Turns,
		Prompts:     p.Prompts,
		Advances:    p.Advances,
		Restarts:    p.Restarts,
		Completions: p.Completions,
		Interrupts:  p.Interrupts,
		Failures:    p.Failures,
	}
}
