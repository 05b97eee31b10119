package unitofwork

import (
	"context"

	"ai-tutor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	AuthTokenRepository() contract.AuthTokenRepository

	StudySessionRepository() contract.StudySessionRepository
	ConversationMessageRepository() contract.ConversationMessageRepository
	ConversationSnapshotRepository() contract.ConversationSnapshotRepository

	StoredDocumentRepository() contract.StoredDocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	GeneratedArtifactRepository() contract.GeneratedArtifactRepository
}
