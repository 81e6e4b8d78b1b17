package contract

import (
	"context"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DiscoveryMessageRepository interface {
	Create(ctx context.Context, message *entity.DiscoveryMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscoveryMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
