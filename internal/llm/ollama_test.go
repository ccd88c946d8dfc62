package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestOllamaProvider_Suggest_Success(t *testing.T) {
	var gotReq ollamaRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		_ = json.NewDecoder(r.Body).Decode(&gotReq)

		resp := ollamaResponse{
			Model:           "llama3.1:8b",
			Response:        samplePayload + "\n",
			Done:            true,
			PromptEvalCount: 90,
			EvalCount:       60,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	config := Config{
		BaseURL: server.URL,
		Model:   "llama3.1:8b",
		Timeout: 5,
	}
	provider, err := NewOllamaProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	req := SuggestRequest{Ingredient: "spinach", Outcome: "bone health"}
	resp, err := provider.Suggest(context.Background(), req)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}

	if resp.Payload != samplePayload {
		t.Errorf("Unexpected payload: %s", resp.Payload)
	}
	if resp.TokensUsed != 150 {
		t.Errorf("Expected 150 tokens, got %d", resp.TokensUsed)
	}

	if gotReq.Stream {
		t.Error("Expected streaming to be disabled")
	}
	if gotReq.System == "" {
		t.Error("Expected a system prompt in the request")
	}
	if gotReq.Options.Temperature != 0.2 {
		t.Errorf("Expected temperature 0.2, got %v", gotReq.Options.Temperature)
	}
	if gotReq.Options.NumPredict != 1500 {
		t.Errorf("Expected default num_predict 1500, got %d", gotReq.Options.NumPredict)
	}
}

func TestOllamaProvider_Suggest_ModelRequired(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Suggest(context.Background(), SuggestRequest{Ingredient: "spinach"})
	if err == nil {
		t.Fatal("Expected error for missing model, got nil")
	}
	if !strings.Contains(err.Error(), "ollama model must be specified") {
		t.Errorf("Unexpected error: %v", err)
	}

	// Unlike cloud providers there is no default model to fall back to
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("Expected no API calls, got %d", n)
	}
}

func TestOllamaProvider_Suggest_TokenEstimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Some models omit eval counts entirely
		resp := ollamaResponse{Model: "mistral", Response: samplePayload, Done: true}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "mistral", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	req := SuggestRequest{Ingredient: "spinach", Outcome: "bone health"}
	resp, err := provider.Suggest(context.Background(), req)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}

	want := (len(BuildPrompt(req)) + len(samplePayload)) / 4
	if resp.TokensUsed != want {
		t.Errorf("Expected estimated %d tokens, got %d", want, resp.TokensUsed)
	}
}

func TestOllamaProvider_Suggest_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model 'missing:7b' not found, try pulling it first"}`))
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "missing:7b", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Suggest(context.Background(), SuggestRequest{Ingredient: "spinach"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "API error (404)") {
		t.Errorf("Expected status in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "try pulling it first") {
		t.Errorf("Expected server message in error, got %v", err)
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models": [{"name": "llama3.1:8b"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	// An unreachable server reads as unavailable, not as an error
	server.Close()
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false when the server is down")
	}
}
