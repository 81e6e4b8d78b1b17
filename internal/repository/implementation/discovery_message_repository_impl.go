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

type DiscoveryMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DiscoveryMapper
}

func NewDiscoveryMessageRepository(db *gorm.DB) contract.DiscoveryMessageRepository {
	return &DiscoveryMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewDiscoveryMapper(),
	}
}

func (r *DiscoveryMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DiscoveryMessageRepositoryImpl) Create(ctx context.Context, message *entity.DiscoveryMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *DiscoveryMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DiscoveryMessage, error) {
	var models []*model.DiscoveryMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.DiscoveryMessage, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}

func (r *DiscoveryMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DiscoveryMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DiscoveryMessageRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.DiscoveryMessage{}).Error
}
