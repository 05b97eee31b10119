package chromemstore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/vectorstore"

	chromem "github.com/philippgille/chromem-go"
)

// Store implements vectorstore.Index on a persistent chromem-go database,
// one collection per scope. Pure Go, no Postgres extension needed.
type Store struct {
	mu      sync.RWMutex
	db      *chromem.DB
	embedFn chromem.EmbeddingFunc
}

var _ vectorstore.Index = &Store{}

func New(dataDir string, embedder embedding.EmbeddingProvider) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("create vectorstore dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(dataDir, false)
	if err != nil {
		return nil, fmt.Errorf("open vectorstore: %w", err)
	}
	return &Store{db: db, embedFn: adaptEmbedder(embedder)}, nil
}

// adaptEmbedder bridges our provider interface to chromem's EmbeddingFunc.
// chromem uses one function for both documents and queries, so the
// document task type is used throughout.
func adaptEmbedder(embedder embedding.EmbeddingProvider) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		res, err := embedder.Generate(ctx, text, embedding.TaskTypeDocument)
		if err != nil {
			return nil, err
		}
		return res.Embedding.Values, nil
	}
}

func collectionName(scope vectorstore.Scope) string {
	return fmt.Sprintf("user_%s_session_%s", scope.UserId, scope.SessionId)
}

func (s *Store) Rebuild(ctx context.Context, scope vectorstore.Scope, chunks []vectorstore.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := collectionName(scope)
	if col := s.db.GetCollection(name, s.embedFn); col != nil {
		if err := s.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	col, err := s.db.CreateCollection(name, nil, s.embedFn)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	for _, c := range chunks {
		doc := chromem.Document{
			ID:      fmt.Sprintf("chunk-%06d", c.Index),
			Content: c.Content,
			Metadata: map[string]string{
				"chunk_index": fmt.Sprintf("%d", c.Index),
			},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("index chunk %d: %w", c.Index, err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, scope vectorstore.Scope, query string, k int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.db.GetCollection(collectionName(scope), s.embedFn)
	if col == nil {
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	// chromem occasionally rejects k == count despite the clamp; step down
	// rather than failing the whole retrieval.
	var results []chromem.Result
	var err error
	for attemptK := k; attemptK > 0; attemptK-- {
		results, err = col.Query(ctx, query, attemptK, nil, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Content)
	}
	return contents, nil
}

func (s *Store) Drop(ctx context.Context, scope vectorstore.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := collectionName(scope)
	if col := s.db.GetCollection(name, s.embedFn); col == nil {
		return nil
	}
	return s.db.DeleteCollection(name)
}

func (s *Store) Ready(ctx context.Context, scope vectorstore.Scope) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.db.GetCollection(collectionName(scope), s.embedFn)
	if col == nil {
		return false, nil
	}
	return col.Count() > 0, nil
}
