package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChatInput defines the structure of the JSON request body.
type ChatInput struct {
	Message string `json:"message" binding:"required"`
	Model   string `json:"model"` // optional model override
}

// ChatAI is the handler for POST /v1/ai/chat — the course tutor.
func (h *Handlers) ChatAI(c *gin.Context) {
	// 1. --- Check the Service Is Configured ---
	if h.AIService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI tutor is not configured on this server"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	// 2. --- Parse Input ---
	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Ask the Tutor ---
	answer, tokens, err := h.AIService.GenerateResponse(c.Request.Context(), input.Message, input.Model)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI tutor unavailable: " + err.Error()})
		return
	}

	// 4. --- Save to History ---
	// Best effort: the user already has their answer.
	_, dbErr := h.DB.Exec(`
		INSERT INTO ai_chat_history (user_id, user_message, ai_response, tokens_used)
		VALUES (?, ?, ?, ?)`,
		userID, input.Message, answer, tokens)
	if dbErr != nil {
		log.Printf("failed to save tutor chat history: %v", dbErr)
	}

	// 5. --- Return the Answer ---
	c.JSON(http.StatusOK, gin.H{
		"response":   answer,
		"tokensUsed": tokens,
	})
}
