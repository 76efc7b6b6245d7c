package controllers

import (
	"errors"
	"log"
	"net/http"

	svc "Xiuchatbot/pkg/services"

	"github.com/gin-gonic/gin"
)

// Generate relays a prompt to the upstream model with the server-held key.
// The rate limiter runs before this handler.
func Generate(gemini *svc.GeminiClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gemini.Configured() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server API key not configured"})
			return
		}

		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Prompt == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prompt in request body"})
			return
		}

		text, err := gemini.GenerateContent(c.Request.Context(), body.Prompt)
		if err != nil {
			var ue *svc.UpstreamError
			if errors.As(err, &ue) {
				log.Printf("[relay] Gemini API error: %d %s", ue.Status, ue.Body)
				c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream API error"})
				return
			}
			log.Printf("[relay] proxy error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"text": text})
	}
}
