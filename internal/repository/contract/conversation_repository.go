package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationMessageRepository interface {
	Create(ctx context.Context, message *entity.ConversationMessage) error
	// FindRecent returns the newest messages in chronological order. A
	// limit <= 0 returns the whole log.
	FindRecent(ctx context.Context, userId, sessionId uuid.UUID, limit int) ([]*entity.ConversationMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByScope(ctx context.Context, userId, sessionId uuid.UUID) error
}

type ConversationSnapshotRepository interface {
	// Upsert writes the snapshot for its (user, session) pair, replacing
	// any existing row.
	Upsert(ctx context.Context, snapshot *entity.ConversationSnapshot) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationSnapshot, error)
	SetVectorstoreReady(ctx context.Context, userId, sessionId uuid.UUID, ready bool) error
	DeleteByScope(ctx context.Context, userId, sessionId uuid.UUID) error
}
