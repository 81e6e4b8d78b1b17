package contract

import (
	"context"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DiscoverySessionRepository interface {
	Create(ctx context.Context, session *entity.DiscoverySession) error
	Update(ctx context.Context, session *entity.DiscoverySession) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DiscoverySession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscoverySession, error)
}
