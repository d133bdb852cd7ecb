package log_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/turnflow/log"
	"github.com/viant/turnflow/model"
)

func TestConversationID(t *testing.T) {
	assertAttrEqual(t, log.ConversationID("c1"), "conversation_id", "c1")
}

func TestTurnID(t *testing.T) {
	assertAttrEqual(t, log.TurnID("t1"), "turn_id", "t1")
}

func TestFlowID(t *testing.T) {
	assertAttrEqual(t, log.FlowID("booking"), "flow_id", "booking")
}

func TestResult(t *testing.T) {
	assertAttrEqual(t, log.Result(model.ResultAwaitingInput), "result", "awaitingInput")
}

func TestStep(t *testing.T) {
	attr := log.Step("confirm", 1)
	assert.Equal(t, "step", attr.Key)
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())
	group := attr.Value.Group()
	assert.Len(t, group, 2)
	assert.Equal(t, "confirm", group[0].Value.String())
	assert.Equal(t, int64(1), group[1].Value.Int64())
}

func TestError(t *testing.T) {
	assertAttrEqual(t, log.Error(nil), "error", "")
	assertAttrEqual(t, log.Error(errors.New("boom")), "error", "boom")
}

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
