package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChatClientComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Fatalf("unexpected model %v", payload["model"])
		}
		if _, ok := payload["response_format"]; !ok {
			t.Fatalf("expected response_format in JSON mode")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"ok":true}`}},
			},
		})
	}))
	defer ts.Close()

	client := NewChatClient("primary", ts.URL, "test-key", "test-model", 5*time.Second)
	content, err := client.Complete(context.Background(), CompletionRequest{
		Prompt:   "hello",
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestChatClientCompleteModelOverride(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["model"] != "repair-model" {
			t.Fatalf("expected model override, got %v", payload["model"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer ts.Close()

	client := NewChatClient("primary", ts.URL, "key", "default-model", 5*time.Second)
	if _, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x", Model: "repair-model"}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
}

func TestChatClientServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limit"}`))
	}))
	defer ts.Close()

	client := NewChatClient("primary", ts.URL, "key", "m", 5*time.Second)
	if _, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestEmbeddingClientBatchOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		// Return data out of order; the client must reorder by index.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float32{0.2}},
				{"index": 0, "embedding": []float32{0.1}},
			},
		})
	}))
	defer ts.Close()

	client := NewEmbeddingClient(ts.URL, "key", "m", 5*time.Second)
	vectors, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if vectors[0][0] != 0.1 || vectors[1][0] != 0.2 {
		t.Fatalf("vectors not ordered by index: %v", vectors)
	}
}

func TestEmbeddingClientCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{0.1}},
			},
		})
	}))
	defer ts.Close()

	client := NewEmbeddingClient(ts.URL, "key", "m", 5*time.Second)
	if _, err := client.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on count mismatch")
	}
}
