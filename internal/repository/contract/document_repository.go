package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type StoredDocumentRepository interface {
	Create(ctx context.Context, document *entity.StoredDocument) error
	Update(ctx context.Context, document *entity.StoredDocument) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.DocumentStatus) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StoredDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.StoredDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SumFileSize(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByScopeUnscoped(ctx context.Context, userId, sessionId uuid.UUID) error
}

type DocumentChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []*entity.DocumentChunk) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByScope(ctx context.Context, userId, sessionId uuid.UUID) error
	DeleteByDocument(ctx context.Context, documentId uuid.UUID) error
}
