package service

import (
	"context"
	"errors"
	"time"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IStudyService interface {
	// GenerateNotes builds revision notes from every indexed chunk of the
	// session's corpus and overwrites any previous notes artifact.
	GenerateNotes(ctx context.Context, userId, sessionId uuid.UUID) (*dto.ArtifactResponse, error)
	// GenerateMCQs builds a ten-question multiple-choice quiz the same way.
	// Structure problems in the generated text are reported as warnings, not
	// errors.
	GenerateMCQs(ctx context.Context, userId, sessionId uuid.UUID) (*dto.ArtifactResponse, error)
	GetArtifact(ctx context.Context, userId, sessionId uuid.UUID, contentType entity.ArtifactType) (*dto.ArtifactResponse, error)
}

type studyService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessions         ISessionService
	orchestrator     *pipeline.Orchestrator
	logger           logger.ILogger
	retrieveAllLimit int
}

func NewStudyService(
	uowFactory unitofwork.RepositoryFactory,
	sessions ISessionService,
	orchestrator *pipeline.Orchestrator,
	log logger.ILogger,
	retrieveAllLimit int,
) IStudyService {
	if retrieveAllLimit <= 0 {
		retrieveAllLimit = 1000
	}
	return &studyService{
		uowFactory:       uowFactory,
		sessions:         sessions,
		orchestrator:     orchestrator,
		logger:           log,
		retrieveAllLimit: retrieveAllLimit,
	}
}

// corpusChunks reads the whole chunk log for the scope in document insertion
// order. The chunk table is the source of truth here, not the vector index,
// so study material covers the full corpus even when the index is degraded.
func (s *studyService) corpusChunks(ctx context.Context, userId, sessionId uuid.UUID) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByScope{UserID: userId, SessionID: sessionId},
		specification.OrderBy{Field: "document_id", Desc: false},
		specification.OrderBy{Field: "chunk_index", Desc: false},
		specification.Limit{N: s.retrieveAllLimit},
	)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, row.Content)
	}
	return chunks, nil
}

func (s *studyService) generate(ctx context.Context, userId, sessionId uuid.UUID, contentType entity.ArtifactType) (*dto.ArtifactResponse, error) {
	if userId == uuid.Nil {
		return nil, ErrMissingUser
	}
	if err := s.sessions.VerifyOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	chunks, err := s.corpusChunks(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	var content string
	var warnings []string
	switch contentType {
	case entity.ArtifactTypeNotes:
		content, err = s.orchestrator.Notes(ctx, chunks)
	case entity.ArtifactTypeMCQs:
		content, err = s.orchestrator.MCQs(ctx, chunks)
		if err == nil {
			warnings = pipeline.ValidateMCQ(content)
		}
	default:
		return nil, errors.New("unknown artifact type")
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyCorpus) {
			return nil, serverutils.NewHttpError(fiber.StatusUnprocessableEntity,
				"No documents have been indexed for this session yet")
		}
		return nil, serverutils.WrapHttpError(fiber.StatusBadGateway,
			"Study material generation failed, please try again", err)
	}

	if len(warnings) > 0 {
		s.logger.Warn("Study", "Generated MCQs deviate from the expected shape", map[string]interface{}{
			"session_id": sessionId, "warnings": warnings,
		})
	}

	now := time.Now()
	artifact := &entity.GeneratedArtifact{
		Id:          uuid.New(),
		UserId:      userId,
		SessionId:   sessionId,
		ContentType: contentType,
		Content:     content,
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.GeneratedArtifactRepository().Upsert(ctx, artifact); err != nil {
		return nil, err
	}

	return &dto.ArtifactResponse{
		SessionId:   sessionId,
		ContentType: string(contentType),
		Content:     content,
		Warnings:    warnings,
		GeneratedAt: now,
	}, nil
}

func (s *studyService) GenerateNotes(ctx context.Context, userId, sessionId uuid.UUID) (*dto.ArtifactResponse, error) {
	return s.generate(ctx, userId, sessionId, entity.ArtifactTypeNotes)
}

func (s *studyService) GenerateMCQs(ctx context.Context, userId, sessionId uuid.UUID) (*dto.ArtifactResponse, error) {
	return s.generate(ctx, userId, sessionId, entity.ArtifactTypeMCQs)
}

func (s *studyService) GetArtifact(ctx context.Context, userId, sessionId uuid.UUID, contentType entity.ArtifactType) (*dto.ArtifactResponse, error) {
	if userId == uuid.Nil {
		return nil, ErrMissingUser
	}
	if !contentType.Valid() {
		return nil, serverutils.NewHttpError(fiber.StatusBadRequest, "Unknown artifact type")
	}
	if err := s.sessions.VerifyOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	artifact, err := uow.GeneratedArtifactRepository().FindOne(ctx,
		specification.ByScope{UserID: userId, SessionID: sessionId},
		specification.ByContentType{ContentType: string(contentType)},
	)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, serverutils.NewHttpError(fiber.StatusNotFound, "No generated material for this session")
	}

	return &dto.ArtifactResponse{
		SessionId:   sessionId,
		ContentType: string(artifact.ContentType),
		Content:     artifact.Content,
		GeneratedAt: artifact.UpdatedAt,
	}, nil
}
