package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/dao"
)

func newTestService(t *testing.T, ttl time.Duration) (*Service, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.Addr = server.Addr()
	cfg.Prefix = "test"
	cfg.TTL = ttl
	srv, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, server
}

func TestService(t *testing.T) {
	ctx := context.Background()
	srv, server := newTestService(t, 0)

	_, err := srv.Load(ctx, "c1")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	conversation := &state.Conversation{
		ID:               "c1",
		ActiveFlowID:     "booking",
		CurrentStepIndex: 1,
		Scratch:          state.Scratch{"utterance": "hello"},
	}
	require.NoError(t, srv.Save(ctx, conversation))
	require.NoError(t, srv.Save(ctx, &state.Conversation{ID: "c2"}))
	assert.True(t, server.Exists("test:conversation:c1"))

	loaded, err := srv.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.CurrentStepIndex)
	assert.Equal(t, "hello", loaded.Scratch.String("utterance"))

	all, err := srv.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := srv.List(ctx, dao.NewParameter(dao.ParameterFlowID, "booking"))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "c1", active[0].ID)

	require.NoError(t, srv.Delete(ctx, "c1"))
	assert.ErrorIs(t, srv.Delete(ctx, "c1"), dao.ErrNotFound)
	assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)
	_, err = srv.Load(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)
}

func TestService_TTL(t *testing.T) {
	ctx := context.Background()
	srv, server := newTestService(t, time.Minute)

	require.NoError(t, srv.Save(ctx, &state.Conversation{ID: "idle"}))
	assert.Equal(t, time.Minute, server.TTL("test:conversation:idle"))

	server.FastForward(2 * time.Minute)
	_, err := srv.Load(ctx, "idle")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	all, err := srv.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	members, err := server.SMembers("test:conversations")
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestNew_Unavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
