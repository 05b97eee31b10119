package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-tutor-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatParsesResponse(t *testing.T) {
	var gotReq ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   gotReq.Model,
			Message: ollamaMessage{Role: "assistant", Content: "Photosynthesis converts light to energy."},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "You are a tutor."},
		{Role: "user", Content: "What is photosynthesis?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light to energy.", out)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.False(t, gotReq.Stream)
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nope")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}

func TestChatStreamDeliversFragmentsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)

		flusher := w.(http.Flusher)
		for _, frag := range []string{"Hel", "lo"} {
			chunk := ollamaChatResponse{Message: ollamaMessage{Role: "assistant", Content: frag}}
			data, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "%s\n", data)
			flusher.Flush()
		}
		data, _ := json.Marshal(ollamaChatResponse{Done: true})
		fmt.Fprintf(w, "%s\n", data)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")

	var got []string
	full, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "greet"}}, func(delta string) error {
		got = append(got, delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, got)
	assert.Equal(t, "Hello", full)
}

func TestChatStreamConsumerAbort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 5; i++ {
			chunk := ollamaChatResponse{Message: ollamaMessage{Role: "assistant", Content: "x"}}
			data, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "%s\n", data)
			flusher.Flush()
		}
		data, _ := json.Marshal(ollamaChatResponse{Done: true})
		fmt.Fprintf(w, "%s\n", data)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")

	abort := errors.New("client went away")
	calls := 0
	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "go"}}, func(delta string) error {
		calls++
		if calls == 2 {
			return abort
		}
		return nil
	})
	require.ErrorIs(t, err, abort)
	assert.Equal(t, 2, calls)
}
