package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// Scope pins an index to one user's session. Collections and rows are
// strictly keyed by it; nothing is ever shared across scopes.
type Scope struct {
	UserId    uuid.UUID
	SessionId uuid.UUID
}

// Chunk is one indexable piece of a document corpus.
type Chunk struct {
	Index   int
	Content string
}

// Index is a nearest-neighbor search structure over document chunks.
// A scope's index is rebuilt wholesale on every upload, never merged
// incrementally.
type Index interface {
	// Rebuild replaces the entire indexed corpus for the scope.
	Rebuild(ctx context.Context, scope Scope, chunks []Chunk) error

	// Search returns the contents of the k chunks most similar to query.
	// An unbuilt scope or blank query yields an empty result, not an error.
	Search(ctx context.Context, scope Scope, query string, k int) ([]string, error)

	// Drop removes everything indexed for the scope.
	Drop(ctx context.Context, scope Scope) error

	// Ready reports whether the scope has any indexed content.
	Ready(ctx context.Context, scope Scope) (bool, error)
}
