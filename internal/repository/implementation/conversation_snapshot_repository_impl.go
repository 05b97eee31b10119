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

type ConversationSnapshotRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationSnapshotRepository(db *gorm.DB) contract.ConversationSnapshotRepository {
	return &ConversationSnapshotRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationSnapshotRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationSnapshotRepositoryImpl) Upsert(ctx context.Context, snapshot *entity.ConversationSnapshot) error {
	m := r.mapper.SnapshotToModel(snapshot)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chat_state", "vectorstore_ready", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*snapshot = *r.mapper.SnapshotToEntity(m)
	return nil
}

func (r *ConversationSnapshotRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationSnapshot, error) {
	var m model.ConversationSnapshot
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.SnapshotToEntity(&m), nil
}

func (r *ConversationSnapshotRepositoryImpl) SetVectorstoreReady(ctx context.Context, userId, sessionId uuid.UUID, ready bool) error {
	return r.db.WithContext(ctx).Model(&model.ConversationSnapshot{}).
		Where("user_id = ? AND session_id = ?", userId, sessionId).
		Update("vectorstore_ready", ready).Error
}

func (r *ConversationSnapshotRepositoryImpl) DeleteByScope(ctx context.Context, userId, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userId, sessionId).
		Delete(&model.ConversationSnapshot{}).Error
}
