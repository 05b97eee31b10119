package factory

import (
	"fmt"

	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/vectorstore"
	"ai-tutor-be/pkg/vectorstore/chromemstore"
	"ai-tutor-be/pkg/vectorstore/pgvectorstore"

	"gorm.io/gorm"
)

// NewIndex selects the retrieval index backend. pgvector keeps embeddings in
// Postgres next to the rest of the data; chromem keeps them in local files
// and works without the vector extension.
func NewIndex(providerType string, db *gorm.DB, chromemDir string, embedder embedding.EmbeddingProvider) (vectorstore.Index, error) {
	switch providerType {
	case "pgvector":
		return pgvectorstore.New(db, embedder), nil
	case "chromem":
		return chromemstore.New(chromemDir, embedder)
	default:
		return nil, fmt.Errorf("unsupported vectorstore provider: %s", providerType)
	}
}
