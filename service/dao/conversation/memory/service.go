package memory

import (
	"context"
	"time"

	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/dao"
	"github.com/viant/turnflow/service/dao/criteria"
	"github.com/viant/turnflow/service/dao/store"
)

// Service implements an in-memory, thread-safe conversation store. Abandoned
// conversations are evicted once idle for longer than the configured TTL.
type Service struct {
	*store.MemoryStore[string, state.Conversation]
}

var _ dao.Service[string, state.Conversation] = (*Service)(nil)

// List returns conversations matching parameters
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*state.Conversation, error) {
	all, err := s.MemoryStore.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*state.Conversation, 0, len(all))
	for _, c := range all {
		if !criteria.FilterByFlow(c.ActiveFlowID, parameters) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// New creates a memory store; ttl of zero disables expiry
func New(ttl time.Duration) *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, state.Conversation](
			func(c *state.Conversation) string { return c.ID },
			func(c *state.Conversation) *state.Conversation { return c.Clone() },
			ttl,
		),
	}
}
