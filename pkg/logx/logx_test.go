package logx_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatterIncludesFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l := logx.NewLogger(&logx.Config{Level: logx.LevelInfo, Format: logx.FormatJSON, Output: &buf})

	l.WithFields(logx.Fields{"agent_id": "A1"}).WithError(errors.New("boom")).Error("task failed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "task failed", line["message"])
	assert.Equal(t, "A1", line["agent_id"])
	assert.Equal(t, "boom", line["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := logx.NewLogger(&logx.Config{Level: logx.LevelWarn, Format: logx.FormatConsole, Output: &buf})

	l.WithField("k", 1).Info("hidden")
	assert.Zero(t, buf.Len())

	l.WithField("k", 1).Warn("shown")
	assert.Contains(t, buf.String(), "shown k=1")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logx.LevelWarn, logx.ParseLevel("warning"))
	assert.Equal(t, logx.LevelDebug, logx.ParseLevel("debug"))
	assert.Equal(t, logx.LevelInfo, logx.ParseLevel("nonsense"))
}
