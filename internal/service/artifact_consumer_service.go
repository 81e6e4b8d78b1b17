package service

import (
	"context"
	"encoding/json"

	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/pkg/artifact"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// artifactConsumerService drains queued artifacts into the artifact store.
type artifactConsumerService struct {
	subscriber message.Subscriber
	topicName  string
	store      artifact.Store
	logger     logger.ILogger
}

func NewArtifactConsumerService(
	subscriber message.Subscriber,
	topicName string,
	store artifact.Store,
	log logger.ILogger,
) IConsumerService {
	return &artifactConsumerService{
		subscriber: subscriber,
		topicName:  topicName,
		store:      store,
		logger:     log,
	}
}

func (cs *artifactConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: artifacts are best effort and a failing store
// must not cause endless redelivery.
func (cs *artifactConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var a artifact.Artifact
	if err := json.Unmarshal(msg.Payload, &a); err != nil {
		cs.logger.Error("ARTIFACT", "Failed to unmarshal artifact", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if err := cs.store.Save(ctx, a); err != nil {
		cs.logger.Warn("ARTIFACT", "Failed to store artifact", map[string]interface{}{
			"session_id": a.SessionID,
			"kind":       string(a.Kind),
			"error":      err.Error(),
		})
		return
	}

	cs.logger.Debug("ARTIFACT", "Artifact stored", map[string]interface{}{
		"session_id": a.SessionID,
		"kind":       string(a.Kind),
	})
}
