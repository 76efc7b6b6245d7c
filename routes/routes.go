package routes

import (
	"net/http"

	"Xiuchatbot/controllers"
	"Xiuchatbot/middleware"
	"Xiuchatbot/pkg/chat"
	svc "Xiuchatbot/pkg/services"

	"github.com/gin-gonic/gin"

	generateRoutes "Xiuchatbot/routes/generate"
	websocketRoutes "Xiuchatbot/routes/websocket"
)

// Deps carries what the route groups need from main.
type Deps struct {
	Gemini *svc.GeminiClient
	// Limiter guards every call made with the server key, relay and socket sends alike.
	Limiter        *middleware.Limiter
	WSLimiter      *middleware.Limiter
	AllowedOrigins []string
	ChatOptions    []chat.Option
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "Xiuchatbot proxy running"})
	})

	generateRoutes.Register(r, deps.Gemini, deps.Limiter)
	websocketRoutes.Register(r, deps.Gemini, deps.WSLimiter, controllers.ChatWSConfig{
		Limiter:        deps.Limiter,
		AllowedOrigins: deps.AllowedOrigins,
		ChatOptions:    deps.ChatOptions,
	})
}
