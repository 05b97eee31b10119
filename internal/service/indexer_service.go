package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/ingest"
	pktNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IIndexerService consumes queued index jobs, rebuilding the scope's chunk
// log and vector index from every stored document.
type IIndexerService interface {
	Consume(ctx context.Context) error
}

type indexerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	ingestor       *ingest.Ingestor
	index          vectorstore.Index
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewIndexerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	ingestor *ingest.Ingestor,
	index vectorstore.Index,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IIndexerService {
	return &indexerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		ingestor:       ingestor,
		index:          index,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *indexerService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *indexerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IndexDocumentsMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("Indexer", "Failed to unmarshal index job", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed jobs never become valid on retry
		return
	}

	if err := s.rebuildScope(ctx, payload); err != nil {
		s.logger.Error("Indexer", "Index rebuild failed", map[string]interface{}{
			"session_id": payload.SessionId, "error": err.Error(),
		})
		s.markFailed(ctx, payload)
		msg.Nack()
		return
	}

	msg.Ack()
}

// rebuildScope re-derives the chunk log and the vector index from every
// stored document in the scope. The rebuild is wholesale: stale chunks from
// removed or re-uploaded documents cannot survive it.
func (s *indexerService) rebuildScope(ctx context.Context, job dto.IndexDocumentsMessage) error {
	scope := vectorstore.Scope{UserId: job.UserId, SessionId: job.SessionId}
	uow := s.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.StoredDocumentRepository().FindAll(ctx,
		specification.ByScope{UserID: job.UserId, SessionID: job.SessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return err
	}

	var rows []*entity.DocumentChunk
	var indexChunks []vectorstore.Chunk
	indexed := make([]uuid.UUID, 0, len(documents))
	for _, doc := range documents {
		chunks, err := s.ingestor.Process(ctx, doc.FilePath)
		if err != nil {
			s.logger.Warn("Indexer", "Skipping unreadable document", map[string]interface{}{
				"document_id": doc.Id, "file_name": doc.FileName, "error": err.Error(),
			})
			if statusErr := uow.StoredDocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusFailed); statusErr != nil {
				s.logger.Error("Indexer", "Failed to mark document failed", map[string]interface{}{
					"document_id": doc.Id, "error": statusErr.Error(),
				})
			}
			continue
		}
		for _, c := range chunks {
			rows = append(rows, &entity.DocumentChunk{
				UserId:     job.UserId,
				SessionId:  job.SessionId,
				DocumentId: doc.Id,
				ChunkIndex: c.Index,
				Content:    c.Content,
			})
			indexChunks = append(indexChunks, vectorstore.Chunk{
				Index:   len(indexChunks),
				Content: c.Content,
			})
		}
		indexed = append(indexed, doc.Id)
	}

	// Replace the durable chunk log before touching the index so both stay
	// derived from the same corpus.
	if err := uow.DocumentChunkRepository().DeleteByScope(ctx, job.UserId, job.SessionId); err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := uow.DocumentChunkRepository().CreateBatch(ctx, rows); err != nil {
			return err
		}
	}

	if err := s.index.Rebuild(ctx, scope, indexChunks); err != nil {
		return err
	}

	for _, id := range indexed {
		if err := uow.StoredDocumentRepository().UpdateStatus(ctx, id, entity.DocumentStatusIndexed); err != nil {
			s.logger.Error("Indexer", "Failed to mark document indexed", map[string]interface{}{
				"document_id": id, "error": err.Error(),
			})
		}
	}

	if err := uow.ConversationSnapshotRepository().SetVectorstoreReady(ctx, job.UserId, job.SessionId, len(indexChunks) > 0); err != nil {
		s.logger.Warn("Indexer", "Failed to flag vectorstore readiness", map[string]interface{}{
			"session_id": job.SessionId, "error": err.Error(),
		})
	}

	s.logger.Info("Indexer", "Scope reindexed", map[string]interface{}{
		"session_id": job.SessionId, "documents": len(indexed), "chunks": len(indexChunks),
	})
	s.notify(ctx, events.DocumentIndexed, job, len(indexChunks))
	return nil
}

func (s *indexerService) markFailed(ctx context.Context, job dto.IndexDocumentsMessage) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	for _, id := range job.DocumentIds {
		if err := uow.StoredDocumentRepository().UpdateStatus(ctx, id, entity.DocumentStatusFailed); err != nil {
			s.logger.Error("Indexer", "Failed to mark document failed", map[string]interface{}{
				"document_id": id, "error": err.Error(),
			})
		}
	}
	s.notify(ctx, events.DocumentIndexFailed, job, 0)
}

func (s *indexerService) notify(ctx context.Context, eventType string, job dto.IndexDocumentsMessage, chunkCount int) {
	if s.eventPublisher == nil {
		return
	}
	documentIds := make([]string, 0, len(job.DocumentIds))
	for _, id := range job.DocumentIds {
		documentIds = append(documentIds, id.String())
	}
	evt := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"user_id":      job.UserId.String(),
			"session_id":   job.SessionId.String(),
			"document_ids": documentIds,
			"chunks":       chunkCount,
		},
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Indexer", "Failed to publish index event", map[string]interface{}{
			"event": eventType, "error": err.Error(),
		})
	}
}
