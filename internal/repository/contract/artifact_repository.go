package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type GeneratedArtifactRepository interface {
	// Upsert keeps at most one artifact per (user, session, type).
	Upsert(ctx context.Context, artifact *entity.GeneratedArtifact) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GeneratedArtifact, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByScope(ctx context.Context, userId, sessionId uuid.UUID) error
}
