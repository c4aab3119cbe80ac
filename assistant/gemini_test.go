package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServerClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key")
	c.baseURL = srv.URL
	return c
}

func TestGenerateContentParsesCandidates(t *testing.T) {
	var captured geminiRequest
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Stay away from the riverbank."}]}}]}`))
	})

	history := []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleModel, Text: "hello"},
	}
	text, err := c.GenerateContent(context.Background(), "gemini-2.0-flash", "system prompt", history, "Is it safe?")
	if err != nil {
		t.Fatalf("GenerateContent failed: %v", err)
	}
	if text != "Stay away from the riverbank." {
		t.Errorf("Unexpected text: %q", text)
	}

	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "system prompt" {
		t.Errorf("System instruction not carried: %+v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("Expected history plus user message, got %d contents", len(captured.Contents))
	}
	if captured.Contents[0].Role != RoleUser || captured.Contents[1].Role != RoleModel {
		t.Errorf("History roles out of order: %+v", captured.Contents)
	}
	last := captured.Contents[2]
	if last.Role != RoleUser || last.Parts[0].Text != "Is it safe?" {
		t.Errorf("User message must be the final turn: %+v", last)
	}
	if captured.GenerationConfig.MaxOutputTokens != 500 {
		t.Errorf("Unexpected generation config: %+v", captured.GenerationConfig)
	}
}

func TestGenerateContentRateLimitError(t *testing.T) {
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Resource exhausted: quota"}}`))
	})

	_, err := c.GenerateContent(context.Background(), "gemini-2.0-flash", "system", nil, "hello")
	if err == nil {
		t.Fatal("Expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", apiErr.StatusCode)
	}
	if !isRateLimited(err) {
		t.Error("429 response must classify as rate limited")
	}
}

func TestGenerateContentNoCandidates(t *testing.T) {
	c := newTestServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := c.GenerateContent(context.Background(), "gemini-2.0-flash", "system", nil, "hello")
	if err == nil {
		t.Fatal("Expected error for empty candidates")
	}
	if isRateLimited(err) {
		t.Errorf("Empty response must not classify as rate limited: %v", err)
	}
}

func TestGenerateContentWithoutAPIKey(t *testing.T) {
	c := NewClient("")
	if c.Enabled() {
		t.Error("Client without key must not be enabled")
	}
	if _, err := c.GenerateContent(context.Background(), "gemini-2.0-flash", "system", nil, "hello"); err == nil {
		t.Error("Expected error without API key")
	}
}
