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
)

type StoredDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewStoredDocumentRepository(db *gorm.DB) contract.StoredDocumentRepository {
	return &StoredDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *StoredDocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *StoredDocumentRepositoryImpl) Create(ctx context.Context, document *entity.StoredDocument) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.ToEntity(m)
	return nil
}

func (r *StoredDocumentRepositoryImpl) Update(ctx context.Context, document *entity.StoredDocument) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.ToEntity(m)
	return nil
}

func (r *StoredDocumentRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus) error {
	return r.db.WithContext(ctx).Model(&model.StoredDocument{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}

func (r *StoredDocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StoredDocument, error) {
	var m model.StoredDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&m), nil
}

func (r *StoredDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StoredDocument, error) {
	var models []*model.StoredDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(models), nil
}

func (r *StoredDocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.StoredDocument{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *StoredDocumentRepositoryImpl) SumFileSize(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var total int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.StoredDocument{}), specs...)
	if err := query.Select("COALESCE(SUM(file_size), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *StoredDocumentRepositoryImpl) DeleteByScopeUnscoped(ctx context.Context, userId, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND session_id = ?", userId, sessionId).
		Delete(&model.StoredDocument{}).Error
}
