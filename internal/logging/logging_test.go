package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Structured(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("debug", "structured", &buf)
	require.NoError(t, err)

	logger.Debug("fetching page")
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fetching page", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("warn", "console", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "WARN")
}

func TestNewWithWriter_Unsupported(t *testing.T) {
	_, err := NewWithWriter("verbose", "console", &bytes.Buffer{})
	assert.EqualError(t, err, "unsupported log level: verbose")

	_, err = NewWithWriter("info", "xml", &bytes.Buffer{})
	assert.EqualError(t, err, "unsupported log format: xml")
}
