package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "shouting"})
	assert.Error(t, err)
}

func TestInfoWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Writer: &buf})
	require.NoError(t, err)

	log.Info("port allocated", "project", "my-app", "port", 3001)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "port allocated", entry["message"])
	assert.Equal(t, "my-app", entry["project"])
	assert.Equal(t, float64(3001), entry["port"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithDerivedField(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf})
	require.NoError(t, err)

	log.With("component", "allocator").Info("ready")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "allocator", entry["component"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	log.Debug("noop")
	log.Info("noop")
	log.Warn("noop")
	log.Error(nil, "noop")
	assert.Nil(t, log.With("k", "v"))
}
