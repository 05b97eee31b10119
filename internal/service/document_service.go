package service

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/pkg/serverutils"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/ingest"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentService interface {
	// Upload stores each file under the scope's upload directory, records
	// pending document rows and queues one index rebuild for the batch.
	// Indexing is async; the caller gets the pending documents back
	// immediately. Validation is all-or-nothing: one bad file rejects the
	// whole batch before anything touches disk.
	Upload(ctx context.Context, userId, sessionId uuid.UUID, files []*multipart.FileHeader) (*dto.UploadDocumentsResponse, error)
	GetDocuments(ctx context.Context, userId, sessionId uuid.UUID) ([]dto.DocumentResponse, error)
}

type documentService struct {
	uowFactory   unitofwork.RepositoryFactory
	sessions     ISessionService
	indexQueue   IPublisherService
	logger       logger.ILogger
	uploadDir    string
	maxSizeBytes int64
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	sessions ISessionService,
	indexQueue IPublisherService,
	log logger.ILogger,
	uploadDir string,
	maxSizeMB int,
) IDocumentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	return &documentService{
		uowFactory:   uowFactory,
		sessions:     sessions,
		indexQueue:   indexQueue,
		logger:       log,
		uploadDir:    uploadDir,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

func (s *documentService) Upload(ctx context.Context, userId, sessionId uuid.UUID, files []*multipart.FileHeader) (*dto.UploadDocumentsResponse, error) {
	if userId == uuid.Nil {
		return nil, ErrMissingUser
	}
	if err := s.sessions.VerifyOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, serverutils.NewHttpError(fiber.StatusBadRequest, "No files in upload")
	}

	for _, file := range files {
		if !ingest.SupportedExt(file.Filename) {
			return nil, serverutils.NewHttpError(fiber.StatusBadRequest,
				fmt.Sprintf("Unsupported file type for %q, expected .pdf, .txt or .md", file.Filename))
		}
		if file.Size > s.maxSizeBytes {
			return nil, serverutils.NewHttpError(fiber.StatusRequestEntityTooLarge,
				fmt.Sprintf("File %q exceeds the %dMB upload limit", file.Filename, s.maxSizeBytes/(1024*1024)))
		}
	}

	dir := filepath.Join(s.uploadDir, userId.String(), sessionId.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	// Keep the disk consistent with the database: anything stored in this
	// batch is removed again when the batch does not get recorded.
	storedPaths := make([]string, 0, len(files))
	removeStored := func() {
		for _, p := range storedPaths {
			if rmErr := os.Remove(p); rmErr != nil {
				s.logger.Warn("Document", "Failed to remove orphaned upload", map[string]interface{}{
					"path": p, "error": rmErr.Error(),
				})
			}
		}
	}

	documents := make([]*entity.StoredDocument, 0, len(files))
	for _, file := range files {
		docId := uuid.New()
		storedPath := filepath.Join(dir, docId.String()+filepath.Ext(file.Filename))
		if err := s.saveFile(file, storedPath); err != nil {
			removeStored()
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		storedPaths = append(storedPaths, storedPath)
		documents = append(documents, &entity.StoredDocument{
			Id:        docId,
			UserId:    userId,
			SessionId: sessionId,
			FileName:  file.Filename,
			FilePath:  storedPath,
			FileSize:  file.Size,
			FileType:  filepath.Ext(file.Filename),
			Status:    entity.DocumentStatusPending,
		})
	}

	if err := s.recordBatch(ctx, documents); err != nil {
		removeStored()
		return nil, err
	}

	documentIds := make([]uuid.UUID, 0, len(documents))
	out := make([]dto.DocumentResponse, 0, len(documents))
	for _, document := range documents {
		documentIds = append(documentIds, document.Id)
		out = append(out, toDocumentResponse(document))
	}

	payload, err := json.Marshal(dto.IndexDocumentsMessage{
		UserId:      userId,
		SessionId:   sessionId,
		DocumentIds: documentIds,
	})
	if err != nil {
		return nil, err
	}
	if err := s.indexQueue.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("failed to queue indexing job: %w", err)
	}

	s.logger.Info("Document", "Upload accepted", map[string]interface{}{
		"session_id": sessionId, "files": len(documents),
	})

	return &dto.UploadDocumentsResponse{
		Documents: out,
		Indexing:  "queued",
	}, nil
}

// recordBatch inserts all pending rows in one transaction, so the wholesale
// reindex never sees a half-recorded batch.
func (s *documentService) recordBatch(ctx context.Context, documents []*entity.StoredDocument) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	for _, document := range documents {
		if err := uow.StoredDocumentRepository().Create(ctx, document); err != nil {
			return err
		}
	}
	return uow.Commit()
}

func (s *documentService) saveFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(src); err != nil {
		return err
	}
	return out.Close()
}

func (s *documentService) GetDocuments(ctx context.Context, userId, sessionId uuid.UUID) ([]dto.DocumentResponse, error) {
	if userId == uuid.Nil {
		return []dto.DocumentResponse{}, nil
	}
	if err := s.sessions.VerifyOwned(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.StoredDocumentRepository().FindAll(ctx,
		specification.ByScope{UserID: userId, SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]dto.DocumentResponse, 0, len(documents))
	for _, d := range documents {
		out = append(out, toDocumentResponse(d))
	}
	return out, nil
}

func toDocumentResponse(d *entity.StoredDocument) dto.DocumentResponse {
	return dto.DocumentResponse{
		Id:        d.Id,
		FileName:  d.FileName,
		FileSize:  d.FileSize,
		FileType:  d.FileType,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
	}
}
