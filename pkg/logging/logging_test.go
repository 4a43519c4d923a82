package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"DEBUG", LevelDebug},
		{"Warning", LevelWarn},
		{"dEbUg", LevelDebug},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("Json"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
	assert.Equal(t, FormatText, ParseFormat(""))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept", "path", "/pets")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "/pets", record["path"])
}

func TestErrorAttrs(t *testing.T) {
	assert.Nil(t, ErrorAttrs(nil))

	base := errors.New("connection refused")
	err := fmt.Errorf("execute test: %w", base)

	var buf bytes.Buffer
	New(Config{Format: FormatJSON, Output: &buf}).Error("failed", ErrorAttrs(err)...)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "execute test: connection refused", record["error"])
	assert.Equal(t, []any{"connection refused"}, record["causes"])
}

func TestMultiHandler(t *testing.T) {
	var text, jsonOut bytes.Buffer
	logger := slog.New(NewMultiHandler(
		NewHandler(Config{Level: LevelInfo, Output: &text}),
		NewHandler(Config{Level: LevelDebug, Format: FormatJSON, Output: &jsonOut}),
	)).With("component", "stub")

	logger.Debug("only json")
	logger.Info("both")

	assert.NotContains(t, text.String(), "only json")
	assert.Contains(t, text.String(), "both")
	assert.Contains(t, text.String(), "component=stub")
	assert.Contains(t, jsonOut.String(), "only json")
	assert.Contains(t, jsonOut.String(), `"component":"stub"`)
}

func TestNop(t *testing.T) {
	assert.False(t, Nop().Enabled(context.Background(), LevelError))
}
