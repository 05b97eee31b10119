package pgvectorstore

import (
	"context"
	"fmt"
	"strings"

	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// chunkVector is the storage row for one embedded chunk. The table is
// private to this package: it is index internals, not a domain aggregate.
type chunkVector struct {
	Id         int64           `gorm:"primaryKey;autoIncrement"`
	UserId     uuid.UUID       `gorm:"type:uuid;not null;index:idx_chunk_vectors_scope"`
	SessionId  uuid.UUID       `gorm:"type:uuid;not null;index:idx_chunk_vectors_scope"`
	ChunkIndex int             `gorm:"default:0"`
	Content    string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 and nomic-embed-text are both 768-dim
}

func (chunkVector) TableName() string {
	return "chunk_vectors"
}

// Store implements vectorstore.Index on a Postgres table with a pgvector
// column, cosine distance.
type Store struct {
	db       *gorm.DB
	embedder embedding.EmbeddingProvider
}

func New(db *gorm.DB, embedder embedding.EmbeddingProvider) *Store {
	return &Store{db: db, embedder: embedder}
}

var _ vectorstore.Index = &Store{}

// Migrate creates the chunk_vectors table. Requires the vector extension.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&chunkVector{})
}

func (s *Store) Rebuild(ctx context.Context, scope vectorstore.Scope, chunks []vectorstore.Chunk) error {
	// Embed outside the transaction, the provider calls are the slow part.
	rows := make([]*chunkVector, 0, len(chunks))
	for _, c := range chunks {
		res, err := s.embedder.Generate(ctx, c.Content, embedding.TaskTypeDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", c.Index, err)
		}
		rows = append(rows, &chunkVector{
			UserId:     scope.UserId,
			SessionId:  scope.SessionId,
			ChunkIndex: c.Index,
			Content:    c.Content,
			Embedding:  pgvector.NewVector(res.Embedding.Values),
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND session_id = ?", scope.UserId, scope.SessionId).
			Delete(&chunkVector{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 100).Error
	})
}

func (s *Store) Search(ctx context.Context, scope vectorstore.Scope, query string, k int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	res, err := s.embedder.Generate(ctx, query, embedding.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVector := pgvector.NewVector(res.Embedding.Values)

	// Cosine distance in pgvector is 1 - cosine_similarity, so the
	// similarity alias orders best matches first.
	type result struct {
		Content    string
		Similarity float64
	}
	var results []result
	err = s.db.WithContext(ctx).
		Table("chunk_vectors").
		Select("content, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("user_id = ? AND session_id = ?", scope.UserId, scope.SessionId).
		Order("similarity DESC").
		Limit(k).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Content
	}
	return contents, nil
}

func (s *Store) Drop(ctx context.Context, scope vectorstore.Scope) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", scope.UserId, scope.SessionId).
		Delete(&chunkVector{}).Error
}

func (s *Store) Ready(ctx context.Context, scope vectorstore.Scope) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&chunkVector{}).
		Where("user_id = ? AND session_id = ?", scope.UserId, scope.SessionId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
