package generate

import (
	"Xiuchatbot/controllers"
	"Xiuchatbot/middleware"
	svc "Xiuchatbot/pkg/services"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, gemini *svc.GeminiClient, limiter *middleware.Limiter) {
	api := r.Group("/api")
	api.POST("/generate", middleware.RateLimit(limiter), controllers.Generate(gemini))
}
