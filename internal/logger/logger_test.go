package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutputWithRequestAndError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Environment: "prod", Level: "debug", Output: &buf})

	req := httptest.NewRequest("GET", "/api/calls", nil)
	req.Header.Set("X-Request-ID", "req-1")
	log.WithRequest(req).WithField("error", errors.New("boom").Error()).Debug("handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["req_id"])
	assert.Equal(t, "/api/calls", entry["path"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "debug", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Environment: "prod", Level: "warn", Output: &buf})
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Component("extractor").WithCall("c1").Warn("shown")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "extractor", entry["component"])
	assert.Equal(t, "c1", entry["call_id"])
}

func TestWithNilError(t *testing.T) {
	log := Discard()
	assert.Same(t, log.Entry, log.WithError(nil))
}

func TestLoggersDoNotShareState(t *testing.T) {
	var quiet, loud bytes.Buffer
	q := New(Options{Environment: "prod", Level: "error", Output: &quiet})
	l := New(Options{Environment: "prod", Level: "debug", Output: &loud})

	q.Info("dropped")
	l.Debug("kept")

	assert.Zero(t, quiet.Len())
	assert.Contains(t, loud.String(), "kept")
	assert.NotSame(t, q.Logger, l.Logger)
}
