package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type StudySessionRepository interface {
	Create(ctx context.Context, session *entity.StudySession) error
	Update(ctx context.Context, session *entity.StudySession) error
	Touch(ctx context.Context, id uuid.UUID) error // Bump last_accessed_at
	DeleteUnscoped(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StudySession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StudySession, error)
	FindAllWithMessageCount(ctx context.Context, userId uuid.UUID) ([]*entity.StudySessionSummary, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
