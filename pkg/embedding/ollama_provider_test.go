package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerateNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{3, 4}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")
	res, err := p.Generate(context.Background(), "hello", TaskTypeDocument)
	require.NoError(t, err)

	values := res.Embedding.Values
	require.Len(t, values, 2)
	assert.InDelta(t, 0.6, values[0], 1e-6)
	assert.InDelta(t, 0.8, values[1], 1e-6)

	var mag float64
	for _, v := range values {
		mag += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-6)
}

func TestOllamaGenerateHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, "hello", TaskTypeDocument)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeVectorZero(t *testing.T) {
	out := normalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, out)
}

func TestFactorySelectsProvider(t *testing.T) {
	p, err := NewEmbeddingProvider("ollama", "", "http://localhost:11434", "nomic-embed-text")
	require.NoError(t, err)
	assert.IsType(t, &OllamaProvider{}, p)

	_, err = NewEmbeddingProvider("gemini", "", "", "")
	assert.Error(t, err)

	p, err = NewEmbeddingProvider("gemini", "key", "", "")
	require.NoError(t, err)
	assert.IsType(t, &GeminiProvider{}, p)

	_, err = NewEmbeddingProvider("openai", "", "", "")
	assert.Error(t, err)
}
