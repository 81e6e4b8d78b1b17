package unitofwork

import (
	"context"

	"ai-discovery-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DiscoverySessionRepository() contract.DiscoverySessionRepository
	DiscoveryMessageRepository() contract.DiscoveryMessageRepository
	DiscoveryIdeaRepository() contract.DiscoveryIdeaRepository
}
