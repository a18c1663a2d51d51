package server

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStream accepts headers but fails every body write, like a client
// that went away mid-stream.
type brokenStream struct {
	*httptest.ResponseRecorder
}

func (brokenStream) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestSSEWriter_Events(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	sse.WriteStatus("Analyzing resume...")
	sse.WriteComplete("abc", "completed")

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"event: status\ndata: {\"message\":\"Analyzing resume...\"}\n\n"+
			"event: complete\ndata: {\"session_id\":\"abc\",\"status\":\"completed\"}\n\n",
		rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSSEWriter_LogsWriteFailures(t *testing.T) {
	var logs bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(orig) })

	sse, err := NewSSEWriter(brokenStream{httptest.NewRecorder()})
	require.NoError(t, err)

	sse.WriteStatus("Analyzing resume...")
	sse.WriteError("boom")

	assert.Contains(t, logs.String(), "[sse] failed to write status event: broken pipe")
	assert.Contains(t, logs.String(), "[sse] failed to write error event: broken pipe")
}

func TestNewSSEWriter_RequiresFlusher(t *testing.T) {
	_, err := NewSSEWriter(struct{ http.ResponseWriter }{httptest.NewRecorder()})
	assert.Error(t, err)
}
