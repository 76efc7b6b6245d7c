package main

import (
	"log"
	"time"

	"Xiuchatbot/middleware"
	"Xiuchatbot/pkg/chat"
	"Xiuchatbot/pkg/config"
	svc "Xiuchatbot/pkg/services"
	"Xiuchatbot/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()
	if config.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	gemini := svc.NewGeminiClient(config.GeminiAPIKey, config.APIURL, config.UpstreamTimeout())
	if !gemini.Configured() {
		log.Println("[relay] GEMINI_API_KEY is not set; /api/generate will answer 500")
	}

	limiter := middleware.NewLimiter("generate", config.RateLimitInterval(), config.RateLimitMaxClients)
	defer limiter.Close()
	wsLimiter := middleware.NewLimiter("ws", config.RateLimitInterval(), config.RateLimitMaxClients)
	defer wsLimiter.Close()

	r := gin.Default()
	// identity is the socket address; forwarding headers are not trusted
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Fatalf("[relay] trusted proxies: %v", err)
	}

	// CORS configuration
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(config.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = config.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	routes.RegisterRoutes(r, routes.Deps{
		Gemini:         gemini,
		Limiter:        limiter,
		WSLimiter:      wsLimiter,
		AllowedOrigins: config.CORSOrigins,
		ChatOptions: []chat.Option{
			chat.WithCooldown(config.Cooldown()),
			chat.WithCharDelay(config.CharDelay()),
		},
	})

	log.Printf("[relay] Xiuchatbot proxy running on port %s. Endpoint: POST /api/generate", config.Port)
	if err := r.Run(":" + config.Port); err != nil {
		log.Fatalf("[relay] server stopped: %v", err)
	}
}
