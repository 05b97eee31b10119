package implementation

import (
	"context"
	"errors"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GeneratedArtifactRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArtifactMapper
}

func NewGeneratedArtifactRepository(db *gorm.DB) contract.GeneratedArtifactRepository {
	return &GeneratedArtifactRepositoryImpl{
		db:     db,
		mapper: mapper.NewArtifactMapper(),
	}
}

func (r *GeneratedArtifactRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GeneratedArtifactRepositoryImpl) Upsert(ctx context.Context, artifact *entity.GeneratedArtifact) error {
	m := r.mapper.ToModel(artifact)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "session_id"}, {Name: "content_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*artifact = *r.mapper.ToEntity(m)
	return nil
}

func (r *GeneratedArtifactRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GeneratedArtifact, error) {
	var m model.GeneratedArtifact
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&m), nil
}

func (r *GeneratedArtifactRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.GeneratedArtifact{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GeneratedArtifactRepositoryImpl) DeleteByScope(ctx context.Context, userId, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userId, sessionId).
		Delete(&model.GeneratedArtifact{}).Error
}
