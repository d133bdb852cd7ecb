package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/turnflow/log"
)

func TestNewUsesInfoLevel(t *testing.T) {
	logger := log.New("svc", "dev", "1.0.0")
	ctx := context.Background()

	assert.False(t, logger.Handler().Enabled(ctx, slog.LevelDebug))
	assert.True(t, logger.Handler().Enabled(ctx, slog.LevelInfo))
}

func TestNewWithWriterOutputsBaseAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := log.NewWithWriter(buf, "turnflow", "prod", "2.3.4", slog.LevelDebug)
	logger.Debug("turn handled", log.ConversationID("c1"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "turnflow", got["service"])
	assert.Equal(t, "prod", got["env"])
	assert.Equal(t, "2.3.4", got["version"])
	assert.Equal(t, "c1", got["conversation_id"])
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input     string
		expect    slog.Level
		expectErr bool
	}{
		{input: "", expect: slog.LevelInfo},
		{input: "DEBUG", expect: slog.LevelDebug},
		{input: "warning", expect: slog.LevelWarn},
		{input: "error", expect: slog.LevelError},
		{input: "verbose", expect: slog.LevelInfo, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			level, err := log.ParseLevel(tc.input)
			assert.Equal(t, tc.expect, level)
			assert.Equal(t, tc.expectErr, err != nil)
		})
	}
}
