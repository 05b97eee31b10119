package implementation

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationMessageRepository(db *gorm.DB) contract.ConversationMessageRepository {
	return &ConversationMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationMessageRepositoryImpl) Create(ctx context.Context, message *entity.ConversationMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

// FindRecent fetches the newest rows by serial id, then reverses so the
// caller always sees chronological order regardless of limit.
func (r *ConversationMessageRepositoryImpl) FindRecent(ctx context.Context, userId, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userId, sessionId).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []*model.ConversationMessage
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}

	return r.mapper.MessagesToEntities(models), nil
}

func (r *ConversationMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error) {
	var models []*model.ConversationMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	return r.mapper.MessagesToEntities(models), nil
}

func (r *ConversationMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ConversationMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ConversationMessageRepositoryImpl) DeleteByScope(ctx context.Context, userId, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userId, sessionId).
		Delete(&model.ConversationMessage{}).Error
}
