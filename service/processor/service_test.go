package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/turnflow/model"
	"github.com/viant/turnflow/runtime/controller"
	"github.com/viant/turnflow/service/messaging/memory"
	"github.com/viant/turnflow/tracing"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordingHandler struct {
	mux      sync.Mutex
	texts    []string
	failures int
	err      error
}

func (h *recordingHandler) HandleTurn(ctx context.Context, conversationID string, input *model.TurnInput) (*model.TurnReport, error) {
	h.mux.Lock()
	defer h.mux.Unlock()
	if h.failures > 0 {
		h.failures--
		return nil, h.err
	}
	h.texts = append(h.texts, input.Text)
	return &model.TurnReport{ConversationID: conversationID, Result: model.ResultAwaitingInput}, nil
}

func (h *recordingHandler) handled() []string {
	h.mux.Lock()
	defer h.mux.Unlock()
	return append([]string(nil), h.texts...)
}

func TestNew(t *testing.T) {
	queue := memory.NewQueue[model.Turn](memory.DefaultConfig())
	_, err := New(WithMessageQueue(queue))
	assert.Error(t, err)
	_, err = New(WithHandler(&recordingHandler{}))
	assert.Error(t, err)
	srv, err := New(WithMessageQueue(queue), WithHandler(&recordingHandler{}), WithConfig(Config{}))
	require.NoError(t, err)
	assert.Equal(t, 1, srv.config.WorkerCount)
	assert.Equal(t, DefaultConfig().PollInterval, srv.config.PollInterval)
}

func TestService_ProcessesInOrder(t *testing.T) {
	queue := memory.NewQueue[model.Turn](memory.DefaultConfig())
	handler := &recordingHandler{}
	var reports int
	var mux sync.Mutex
	srv, err := New(WithMessageQueue(queue), WithHandler(handler), WithReportListener(func(turn *model.Turn, report *model.TurnReport, err error) {
		mux.Lock()
		reports++
		mux.Unlock()
	}))
	require.NoError(t, err)

	ctx := context.Background()
	for _, text := range []string{"hello", "book a flight", "yes"} {
		require.NoError(t, srv.Submit(ctx, "c1", model.NewTurnInput(text)))
	}
	require.NoError(t, srv.Start(ctx))
	defer srv.Shutdown()
	assert.Error(t, srv.Start(ctx))

	assert.Eventually(t, func() bool { return len(handler.handled()) == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"hello", "book a flight", "yes"}, handler.handled())
	mux.Lock()
	assert.Equal(t, 3, reports)
	mux.Unlock()
}

func TestService_Retry(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		expectTexts []string
	}{
		{
			name:        "store failure is retried",
			err:         &controller.StoreError{Op: "save", Err: errors.New("unavailable")},
			expectTexts: []string{"hello"},
		},
		{
			name: "step failure is dropped",
			err:  &controller.StepError{FlowID: "f", Step: "s", Err: errors.New("boom")},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			queue := memory.NewQueue[model.Turn](memory.Config{MaxRetries: 3, RetryDelay: time.Millisecond, DeadLetter: true, QueueBuffer: 10})
			defer queue.Close()
			handler := &recordingHandler{failures: 1, err: tc.err}
			var mux sync.Mutex
			var errs []error
			srv, err := New(WithMessageQueue(queue), WithHandler(handler), WithReportListener(func(turn *model.Turn, report *model.TurnReport, err error) {
				mux.Lock()
				errs = append(errs, err)
				mux.Unlock()
			}))
			require.NoError(t, err)
			require.NoError(t, srv.Submit(context.Background(), "c1", model.NewTurnInput("hello")))
			require.NoError(t, srv.Start(context.Background()))
			defer srv.Shutdown()

			expectCalls := 1 + len(tc.expectTexts)
			assert.Eventually(t, func() bool {
				mux.Lock()
				defer mux.Unlock()
				return len(errs) == expectCalls
			}, 2*time.Second, 5*time.Millisecond)
			time.Sleep(20 * time.Millisecond)
			assert.Equal(t, tc.expectTexts, handler.handled())
			assert.Equal(t, 0, queue.DLQSize())
		})
	}
}

func TestService_Submit(t *testing.T) {
	queue := memory.NewQueue[model.Turn](memory.DefaultConfig())
	srv, err := New(WithMessageQueue(queue), WithHandler(&recordingHandler{}))
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Submit(context.Background(), "", model.NewTurnInput("x")), controller.ErrInvalidConversationID)
	require.NoError(t, srv.Submit(context.Background(), "c1", nil))
	assert.Equal(t, 1, queue.Size())
}

func TestService_Shutdown(t *testing.T) {
	queue := memory.NewQueue[model.Turn](memory.DefaultConfig())
	srv, err := New(WithMessageQueue(queue), WithHandler(&recordingHandler{}), WithWorkers(3))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	done := make(chan struct{})
	go func() {
		srv.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not complete")
	}
}

// brokenMessage fails to acknowledge
type brokenMessage struct {
	turn model.Turn
	err  error
}

func (m *brokenMessage) ID() string { return "m1" }

func (m *brokenMessage) T() *model.Turn { return &m.turn }

func (m *brokenMessage) Attempts() int { return 0 }

func (m *brokenMessage) Ack() error { return m.err }

func (m *brokenMessage) Nack(error) error { return m.err }

func TestService_processMessage_SpanStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, tracing.InitWithExporter("turnflow", "test", exporter))

	testCases := []struct {
		name       string
		ackErr     error
		expectCode codes.Code
	}{
		{name: "acked", expectCode: codes.Ok},
		{name: "ack failure", ackErr: errors.New("queue closed"), expectCode: codes.Error},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			exporter.Reset()
			srv, err := New(WithMessageQueue(memory.NewQueue[model.Turn](memory.DefaultConfig())), WithHandler(&recordingHandler{}))
			require.NoError(t, err)
			message := &brokenMessage{turn: model.Turn{ConversationID: "c1", Input: *model.NewTurnInput("hi")}, err: tc.ackErr}
			err = srv.processMessage(context.Background(), message)
			assert.Equal(t, tc.ackErr, err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, "processor.processMessage", spans[0].Name)
			assert.Equal(t, tc.expectCode, spans[0].Status.Code)
		})
	}
}
