package implementation

import (
	"context"
	"errors"
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudySessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewStudySessionRepository(db *gorm.DB) contract.StudySessionRepository {
	return &StudySessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *StudySessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *StudySessionRepositoryImpl) Create(ctx context.Context, session *entity.StudySession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *StudySessionRepositoryImpl) Update(ctx context.Context, session *entity.StudySession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *StudySessionRepositoryImpl) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.StudySession{}).
		Where("id = ?", id).
		Update("last_accessed_at", time.Now()).Error
}

func (r *StudySessionRepositoryImpl) DeleteUnscoped(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&model.StudySession{}).Error
}

func (r *StudySessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StudySession, error) {
	var m model.StudySession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&m), nil
}

func (r *StudySessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StudySession, error) {
	var models []*model.StudySession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entities := make([]*entity.StudySession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *StudySessionRepositoryImpl) FindAllWithMessageCount(ctx context.Context, userId uuid.UUID) ([]*entity.StudySessionSummary, error) {
	var rows []struct {
		model.StudySession
		MessageCount int64 `gorm:"column:message_count"`
	}

	// Table() bypasses the soft-delete scope, so filter deleted_at here.
	err := r.db.WithContext(ctx).Table("study_sessions").
		Select("study_sessions.*, COUNT(conversation_messages.id) as message_count").
		Joins("LEFT JOIN conversation_messages ON conversation_messages.session_id = study_sessions.id AND conversation_messages.user_id = study_sessions.user_id").
		Where("study_sessions.user_id = ? AND study_sessions.deleted_at IS NULL", userId).
		Group("study_sessions.id").
		Order("study_sessions.last_accessed_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]*entity.StudySessionSummary, len(rows))
	for i, row := range rows {
		summaries[i] = &entity.StudySessionSummary{
			StudySession: *r.mapper.ToEntity(&row.StudySession),
			MessageCount: row.MessageCount,
		}
	}
	return summaries, nil
}

func (r *StudySessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.StudySession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
