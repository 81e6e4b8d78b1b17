package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Discovery session lifecycle event types.
const (
	SessionStarted   = "SESSION_STARTED"
	PhaseChanged     = "PHASE_CHANGED"
	SessionCompleted = "SESSION_COMPLETED"
	SessionDeleted   = "SESSION_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_STARTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events to a bus. Publishing is best effort for callers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewSessionEvent builds a lifecycle event for one discovery session.
// extra is merged into the payload after the identifying fields.
func NewSessionEvent(eventType string, sessionID, userID uuid.UUID, extra map[string]interface{}) BaseEvent {
	data := map[string]interface{}{
		"session_id": sessionID.String(),
		"user_id":    userID.String(),
	}
	for k, v := range extra {
		data[k] = v
	}
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
