package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGenerateReturnsCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Fatal("stream should be disabled")
		}
		if req.Format != "json" {
			t.Fatalf("unexpected format %q", req.Format)
		}
		payload := map[string]any{"response": `{"show":"Foo"}`, "done": true}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "demo-model"})
	content, err := client.Generate(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if content != `{"show":"Foo"}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"error": "model not found"}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "missing"})
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected api error")
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "ok", "done": true})
	}))
	defer server.Close()

	client := NewClient(
		Config{BaseURL: server.URL, Model: "demo", RetryAttempts: 3},
		WithSleeper(func(time.Duration) {}),
	)
	content, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if content != "ok" {
		t.Fatalf("unexpected content %q", content)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(
		Config{BaseURL: server.URL, Model: "demo", RetryAttempts: 3},
		WithSleeper(func(time.Duration) {}),
	)
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		payload := map[string]any{
			"models": []map[string]any{{"name": "qwen3:8b"}, {"name": "mistral"}},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "demo"})
	models, err := client.Models(context.Background())
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	if len(models) != 2 || models[0] != "qwen3:8b" {
		t.Fatalf("unexpected models %v", models)
	}
	if !client.Available(context.Background()) {
		t.Fatal("Available should be true")
	}
}

func TestDecodeJSONHandlesCommentary(t *testing.T) {
	var parsed struct {
		Show    string `json:"show"`
		Season  string `json:"season"`
		Episode string `json:"episode"`
	}
	raw := `Based on the title, here's the json: {"show": "Foo", "season": "2", "episode": "05"}`
	if err := DecodeJSON(raw, &parsed); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if parsed.Show != "Foo" || parsed.Season != "2" || parsed.Episode != "05" {
		t.Fatalf("unexpected parse %+v", parsed)
	}
}

func TestDecodeJSONHandlesCodeFence(t *testing.T) {
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON("```json\n{\"ok\":true}\n```", &parsed); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !parsed.OK {
		t.Fatal("expected ok=true")
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var parsed map[string]any
	if err := DecodeJSON("I have no idea what this file is.", &parsed); err == nil {
		t.Fatal("expected decode error")
	}
}
