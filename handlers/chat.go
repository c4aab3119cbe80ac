package handlers

import (
	"encoding/json"
	"net/http"

	"tarang-backend/assistant"
	"tarang-backend/database"
	"tarang-backend/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const demoModeResponse = `Namaste! I am the Tarang assistant running in demo mode. ` +
	`Live hazard data and AI answers are unavailable until a Gemini API key is configured. ` +
	`For emergencies call NDMA 1078, Police 100, or Ambulance 108.`

const chatApology = "Sorry, I could not answer that right now. Please try again in a moment, " +
	"and call NDMA 1078, Police 100, or Ambulance 108 if you are in immediate danger."

const systemPromptHeader = `You are Tarang Assistant, the disaster-management helper for the Tarang platform.

Guidelines:
- Answer using the live platform data below; never fabricate reports or numbers.
- If the user signals immediate danger, prioritize emergency guidance over data lookup.
- Keep responses to 3-4 sentences.

Emergency contacts:
- NDMA helpline: 1078
- Police: 100
- Ambulance: 108

Live platform data:
`

// Chat handles the assistant endpoint: fetch context, assemble the prompt,
// normalize history and run the model fallback chain.
func (h *Handlers) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	// Demo mode: no provider configured, so no database or provider calls.
	if h.chat == nil {
		c.JSON(http.StatusOK, models.ChatResponse{
			Success:  true,
			Response: demoModeResponse,
		})
		return
	}

	snapshot := h.loadAssistantContext(c)
	systemPrompt := buildSystemPrompt(snapshot)
	history := normalizeHistory(req.History)

	result, err := h.chat.Generate(c.Request.Context(), systemPrompt, history, req.Message)
	if err != nil {
		log.Errorf("Assistant generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.ChatErrorResponse{
			Success:  false,
			Error:    err.Error(),
			Stack:    attemptTrace(err),
			Response: chatApology,
		})
		return
	}

	c.JSON(http.StatusOK, models.ChatResponse{
		Success:   true,
		Response:  result.Text,
		ModelUsed: result.Model,
	})
}

// loadAssistantContext degrades to nil on any failure; the assistant stays
// usable without live context.
func (h *Handlers) loadAssistantContext(c *gin.Context) *database.AssistantContext {
	snapshot, err := h.db.GetAssistantContext(c.Request.Context())
	if err != nil {
		log.Warnf("Assistant context fetch failed, continuing without it: %v", err)
		return nil
	}
	return snapshot
}

// buildSystemPrompt renders the fixed template around the context snapshot.
// Only the snapshot is interpolated; the user message is appended separately
// at call time.
func buildSystemPrompt(snapshot *database.AssistantContext) string {
	if snapshot == nil {
		return systemPromptHeader + "No active hazards reported right now.\n"
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return systemPromptHeader + "No active hazards reported right now.\n"
	}
	return systemPromptHeader + string(data) + "\n"
}

// normalizeHistory reshapes caller-supplied turns into provider roles,
// preserving order and silently dropping entries with empty text or an
// unrecognized sender.
func normalizeHistory(entries []models.ChatHistoryEntry) []assistant.Turn {
	var turns []assistant.Turn
	for _, entry := range entries {
		if entry.Text == "" {
			continue
		}
		switch entry.Sender {
		case "user":
			turns = append(turns, assistant.Turn{Role: assistant.RoleUser, Text: entry.Text})
		case "bot":
			turns = append(turns, assistant.Turn{Role: assistant.RoleModel, Text: entry.Text})
		}
	}
	return turns
}

func attemptTrace(err error) string {
	if exhausted, ok := err.(*assistant.ExhaustedError); ok {
		return exhausted.Trace()
	}
	return err.Error()
}
