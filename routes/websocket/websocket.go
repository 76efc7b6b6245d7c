package websocket

import (
	"Xiuchatbot/controllers"
	"Xiuchatbot/middleware"
	svc "Xiuchatbot/pkg/services"

	"github.com/gin-gonic/gin"
)

// Register mounts the chat socket. Without a server key the handler answers 500.
// upgrades limits socket opens; cfg.Limiter limits the sends made over them.
func Register(r *gin.Engine, gemini *svc.GeminiClient, upgrades *middleware.Limiter, cfg controllers.ChatWSConfig) {
	var source svc.ResponseSource
	if gemini.Configured() {
		source = svc.NewDirectSource(gemini)
	}
	r.GET("/ws/chat", middleware.RateLimit(upgrades), controllers.ChatWS(source, cfg))
}
