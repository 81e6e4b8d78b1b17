package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewSessionEvent(t *testing.T) {
	sessionID, userID := uuid.New(), uuid.New()
	evt := NewSessionEvent(PhaseChanged, sessionID, userID, map[string]interface{}{
		"from": "setup",
		"to":   "brainstorming",
	})

	assert.Equal(t, PhaseChanged, evt.EventType())
	assert.Equal(t, sessionID.String(), evt.Payload()["session_id"])
	assert.Equal(t, userID.String(), evt.Payload()["user_id"])
	assert.Equal(t, "brainstorming", evt.Payload()["to"])
	assert.False(t, evt.Timestamp().IsZero())
}
