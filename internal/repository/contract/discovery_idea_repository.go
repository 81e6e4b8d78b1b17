package contract

import (
	"context"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DiscoveryIdeaRepository interface {
	// ReplaceForSession swaps the stored ledger of a session for ideas, in order.
	ReplaceForSession(ctx context.Context, sessionId uuid.UUID, ideas []*entity.DiscoveryIdea) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscoveryIdea, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
}
