package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

// scriptedGenerator fails or succeeds per model according to the script and
// records every attempt.
type scriptedGenerator struct {
	errs     map[string]error // nil entry means success
	attempts map[string]int
	prompts  []string
}

func newScriptedGenerator(errs map[string]error) *scriptedGenerator {
	return &scriptedGenerator{
		errs:     errs,
		attempts: make(map[string]int),
	}
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, model, systemPrompt string, history []Turn, message string) (string, error) {
	g.attempts[model]++
	g.prompts = append(g.prompts, systemPrompt)
	if err := g.errs[model]; err != nil {
		return "", err
	}
	return "answer from " + model, nil
}

func newTestController(gen Generator, models []string) (*Controller, *[]time.Duration) {
	var delays []time.Duration
	c := NewController(gen, models)
	c.wait = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return c, &delays
}

func TestFallbackShortCircuitsOnFirstSuccess(t *testing.T) {
	gen := newScriptedGenerator(map[string]error{})
	c, delays := newTestController(gen, []string{"model-a", "model-b", "model-c"})

	result, err := c.Generate(context.Background(), "system", nil, "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Model != "model-a" {
		t.Errorf("Expected model-a, got %s", result.Model)
	}
	if gen.attempts["model-a"] != 1 {
		t.Errorf("Expected 1 attempt against model-a, got %d", gen.attempts["model-a"])
	}
	if gen.attempts["model-b"] != 0 || gen.attempts["model-c"] != 0 {
		t.Errorf("Later models must not be tried after a success: %v", gen.attempts)
	}
	if len(*delays) != 0 {
		t.Errorf("No backoff expected on success, got %v", *delays)
	}
}

func TestFallbackRetriesRateLimitedThenMovesOn(t *testing.T) {
	rateLimited := &APIError{StatusCode: http.StatusTooManyRequests, Message: "Resource exhausted"}
	gen := newScriptedGenerator(map[string]error{
		"model-a": rateLimited,
		"model-b": rateLimited,
	})
	c, _ := newTestController(gen, []string{"model-a", "model-b", "model-c"})

	result, err := c.Generate(context.Background(), "system", nil, "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Model != "model-c" {
		t.Errorf("Expected fallback to model-c, got %s", result.Model)
	}
	if gen.attempts["model-a"] != 3 {
		t.Errorf("Expected exactly 3 attempts against model-a, got %d", gen.attempts["model-a"])
	}
	if gen.attempts["model-b"] != 3 {
		t.Errorf("Expected exactly 3 attempts against model-b, got %d", gen.attempts["model-b"])
	}
	if gen.attempts["model-c"] != 1 {
		t.Errorf("Expected 1 attempt against model-c, got %d", gen.attempts["model-c"])
	}
}

func TestFallbackDoesNotRetryNonRetryableErrors(t *testing.T) {
	gen := newScriptedGenerator(map[string]error{
		"model-a": &APIError{StatusCode: http.StatusBadRequest, Message: "invalid request"},
	})
	c, delays := newTestController(gen, []string{"model-a", "model-b"})

	result, err := c.Generate(context.Background(), "system", nil, "hello")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Model != "model-b" {
		t.Errorf("Expected model-b, got %s", result.Model)
	}
	if gen.attempts["model-a"] != 1 {
		t.Errorf("Non-retryable error must not be retried, got %d attempts", gen.attempts["model-a"])
	}
	if len(*delays) != 0 {
		t.Errorf("No backoff expected for non-retryable errors, got %v", *delays)
	}
}

func TestBackoffDelaysDoubling(t *testing.T) {
	gen := newScriptedGenerator(map[string]error{
		"model-a": &APIError{StatusCode: http.StatusTooManyRequests},
	})
	c, delays := newTestController(gen, []string{"model-a", "model-b"})

	if _, err := c.Generate(context.Background(), "system", nil, "hello"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	expected := []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}
	if len(*delays) != len(expected) {
		t.Fatalf("Expected %d delays, got %v", len(expected), *delays)
	}
	for i, want := range expected {
		if (*delays)[i] != want {
			t.Errorf("Delay %d: expected %v, got %v", i, want, (*delays)[i])
		}
	}
}

func TestAllModelsExhaustedAggregatesLastError(t *testing.T) {
	lastErr := errors.New("quota exceeded: Resource exhausted")
	gen := newScriptedGenerator(map[string]error{
		"model-a": &APIError{StatusCode: http.StatusTooManyRequests},
		"model-b": lastErr,
	})
	c, _ := newTestController(gen, []string{"model-a", "model-b"})

	_, err := c.Generate(context.Background(), "system", nil, "hello")
	if err == nil {
		t.Fatal("Expected aggregated error")
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected *ExhaustedError, got %T", err)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("Aggregated error must wrap the last failure, got %v", err)
	}
	// 3 attempts for model-a plus 3 for model-b (substring classification)
	if len(exhausted.Attempts) != 6 {
		t.Errorf("Expected 6 attempt trace lines, got %d: %q", len(exhausted.Attempts), exhausted.Trace())
	}
}

func TestEmptyModelListFailsGenerically(t *testing.T) {
	gen := newScriptedGenerator(map[string]error{})
	c, _ := newTestController(gen, nil)

	_, err := c.Generate(context.Background(), "system", nil, "hello")
	if err == nil {
		t.Fatal("Expected error with no candidate models")
	}
	if err.Error() != "all models failed" {
		t.Errorf("Expected generic failure message, got %q", err.Error())
	}
}

func TestIsRateLimitedClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"structured 429", &APIError{StatusCode: 429}, true},
		{"structured 400", &APIError{StatusCode: 400, Message: "429 mentioned in body"}, false},
		{"substring 429", fmt.Errorf("provider said: 429 too many requests"), true},
		{"substring resource exhausted", errors.New("rpc error: Resource exhausted"), true},
		{"plain error", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRateLimited(tt.err); got != tt.want {
				t.Errorf("isRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
