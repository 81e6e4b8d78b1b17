package artifact

import (
	"context"
	"encoding/json"

	"ai-discovery-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Recorder queues artifacts on a watermill topic. A consumer drains the topic
// into a Store, so the request path never waits on storage.
type Recorder struct {
	publisher message.Publisher
	topic     string
	log       logger.ILogger
}

func NewRecorder(publisher message.Publisher, topic string, log logger.ILogger) *Recorder {
	return &Recorder{publisher: publisher, topic: topic, log: log}
}

// Record marshals body and queues it. Failures are logged, not returned.
func (r *Recorder) Record(ctx context.Context, sessionID string, kind Kind, body interface{}) {
	if r == nil || r.publisher == nil {
		return
	}

	a, err := New(sessionID, kind, body)
	if err != nil {
		r.warn("Failed to marshal artifact", sessionID, kind, err)
		return
	}
	payload, err := json.Marshal(a)
	if err != nil {
		r.warn("Failed to marshal artifact", sessionID, kind, err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := r.publisher.Publish(r.topic, msg); err != nil {
		r.warn("Failed to queue artifact", sessionID, kind, err)
	}
}

func (r *Recorder) warn(msg, sessionID string, kind Kind, err error) {
	r.log.Warn("ARTIFACT", msg, map[string]interface{}{
		"session_id": sessionID,
		"kind":       string(kind),
		"error":      err.Error(),
	})
}
