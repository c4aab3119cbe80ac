package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
)

const (
	maxAttemptsPerModel = 3
	baseRetryDelay      = time.Second
)

// Generator produces text for a single model attempt. *Client implements it;
// tests substitute fakes.
type Generator interface {
	GenerateContent(ctx context.Context, model, systemPrompt string, history []Turn, message string) (string, error)
}

// Result is a successful generation plus the model that produced it.
type Result struct {
	Text  string
	Model string
}

// ExhaustedError aggregates the failures of every candidate model.
type ExhaustedError struct {
	Attempts []string
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("all models failed: %v", e.Last)
	}
	return "all models failed"
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Trace returns the per-model attempt log for diagnostics.
func (e *ExhaustedError) Trace() string {
	return strings.Join(e.Attempts, "\n")
}

// Controller iterates an ordered list of candidate models, retrying
// rate-limited attempts with exponential backoff before failing over to the
// next model. State is per-call only; a Controller is safe for concurrent use.
type Controller struct {
	gen    Generator
	models []string

	// wait is replaceable in tests to observe backoff delays.
	wait func(ctx context.Context, d time.Duration) error
}

func NewController(gen Generator, models []string) *Controller {
	return &Controller{
		gen:    gen,
		models: models,
		wait:   sleepContext,
	}
}

// Generate tries each candidate model in order and returns the first
// successful response. Rate-limited errors are retried up to
// maxAttemptsPerModel times with 1s, 2s, 4s delays; any other error moves
// straight to the next model.
func (c *Controller) Generate(ctx context.Context, systemPrompt string, history []Turn, message string) (*Result, error) {
	agg := &ExhaustedError{}

	for _, model := range c.models {
		text, err := c.tryModel(ctx, model, systemPrompt, history, message, agg)
		if err == nil {
			log.Infof("Assistant response generated by %s", model)
			return &Result{Text: text, Model: model}, nil
		}
		agg.Last = err
		log.Warnf("Model %s failed, trying next: %v", model, err)
	}

	return nil, agg
}

func (c *Controller) tryModel(ctx context.Context, model, systemPrompt string, history []Turn, message string, agg *ExhaustedError) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttemptsPerModel; attempt++ {
		text, err := c.gen.GenerateContent(ctx, model, systemPrompt, history, message)
		if err == nil {
			return text, nil
		}
		lastErr = err
		agg.Attempts = append(agg.Attempts,
			fmt.Sprintf("%s attempt %d/%d: %v", model, attempt, maxAttemptsPerModel, err))

		if !isRateLimited(err) {
			return "", err
		}
		if attempt == maxAttemptsPerModel {
			break
		}

		delay := baseRetryDelay << (attempt - 1)
		log.Warnf("Rate limited on %s, retrying in %v", model, delay)
		if waitErr := c.wait(ctx, delay); waitErr != nil {
			return "", waitErr
		}
	}
	return "", lastErr
}

// isRateLimited prefers the structured status code; message substrings are a
// fallback for untyped transport errors.
func isRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Resource exhausted")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
