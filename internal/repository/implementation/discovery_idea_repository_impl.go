package implementation

import (
	"context"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/mapper"
	"ai-discovery-be/internal/model"
	"ai-discovery-be/internal/repository/contract"
	"ai-discovery-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DiscoveryIdeaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DiscoveryMapper
}

func NewDiscoveryIdeaRepository(db *gorm.DB) contract.DiscoveryIdeaRepository {
	return &DiscoveryIdeaRepositoryImpl{
		db:     db,
		mapper: mapper.NewDiscoveryMapper(),
	}
}

func (r *DiscoveryIdeaRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DiscoveryIdeaRepositoryImpl) ReplaceForSession(ctx context.Context, sessionId uuid.UUID, ideas []*entity.DiscoveryIdea) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("session_id = ?", sessionId).Delete(&model.DiscoveryIdea{}).Error; err != nil {
		return err
	}
	if len(ideas) == 0 {
		return nil
	}

	models := make([]*model.DiscoveryIdea, len(ideas))
	for i, idea := range ideas {
		models[i] = r.mapper.IdeaToModel(idea)
		models[i].SessionId = sessionId
	}
	return db.Create(&models).Error
}

func (r *DiscoveryIdeaRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscoveryIdea, error) {
	var models []*model.DiscoveryIdea
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.DiscoveryIdea, len(models))
	for i, m := range models {
		entities[i] = r.mapper.IdeaToEntity(m)
	}
	return entities, nil
}

func (r *DiscoveryIdeaRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.DiscoveryIdea{}).Error
}
