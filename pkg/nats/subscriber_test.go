package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Envelope(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(envelope{
		Type:       "SESSION_STARTED",
		OccurredAt: at,
		Data:       map[string]interface{}{"session_id": "abc"},
	})
	require.NoError(t, err)

	evt, err := decode("events.SESSION_STARTED", raw)
	require.NoError(t, err)
	assert.Equal(t, "SESSION_STARTED", evt.EventType())
	assert.True(t, at.Equal(evt.Timestamp()))
	assert.Equal(t, "abc", evt.Payload()["session_id"])
}

func TestDecode_FallsBackToSubject(t *testing.T) {
	evt, err := decode("events.PHASE_CHANGED", []byte(`{"data":{"to":"validation"}}`))
	require.NoError(t, err)
	assert.Equal(t, "PHASE_CHANGED", evt.EventType())
	assert.Equal(t, "validation", evt.Payload()["to"])
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := decode("events.X", []byte("not json"))
	assert.Error(t, err)
}
