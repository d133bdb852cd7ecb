package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/dao"
)

func TestService(t *testing.T) {
	testCases := []struct {
		name    string
		baseURL string
	}{
		{name: "memory file system", baseURL: "mem://localhost/turnflow/conversations"},
		{name: "local file system", baseURL: t.TempDir()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			srv, err := New(ctx, tc.baseURL, afs.New())
			require.NoError(t, err)

			_, err = srv.Load(ctx, "user/1")
			assert.ErrorIs(t, err, dao.ErrNotFound)

			conversation := &state.Conversation{
				ID:               "user/1",
				ActiveFlowID:     "booking",
				CurrentStepIndex: 2,
				Scratch:          state.Scratch{"utterance": "book a flight"},
			}
			require.NoError(t, srv.Save(ctx, conversation))
			require.NoError(t, srv.Save(ctx, &state.Conversation{ID: "user:2"}))

			loaded, err := srv.Load(ctx, "user/1")
			require.NoError(t, err)
			assert.Equal(t, "booking", loaded.ActiveFlowID)
			assert.Equal(t, 2, loaded.CurrentStepIndex)
			assert.Equal(t, "book a flight", loaded.Scratch.String("utterance"))

			all, err := srv.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)

			active, err := srv.List(ctx, dao.NewParameter(dao.ParameterFlowID, "booking"))
			require.NoError(t, err)
			assert.Len(t, active, 1)

			require.NoError(t, srv.Delete(ctx, "user/1"))
			assert.ErrorIs(t, srv.Delete(ctx, "user/1"), dao.ErrNotFound)
			assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)
			assert.ErrorIs(t, srv.Save(ctx, &state.Conversation{}), dao.ErrInvalidID)
		})
	}
}
