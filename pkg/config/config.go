package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL   = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	DefaultRelayURL = "http://127.0.0.1:3000/api/generate"
)

// Values shared by the relay (main.go) and the terminal widget (cmd/chat).
var (
	// client side: presence of APIKey selects the direct source
	APIKey   string
	APIURL   string
	RelayURL string

	// relay side
	GeminiAPIKey string
	Port         string
	CORSOrigins  []string

	AppEnv       string
	IsProduction bool

	// runtime tunables
	RateLimitIntervalMs    int
	RateLimitMaxClients    int
	CooldownMs             int
	CharDelayMs            int
	UpstreamTimeoutSeconds int
)

// loadAppEnv loads .env unless APP_ENV is production. A missing file is not fatal:
// every variable has a default or is optional.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env loaded: %v", err)
	}
}

// Load reads the environment into the package variables. Call once at startup.
func Load() {
	loadAppEnv()

	APIKey = strings.TrimSpace(os.Getenv("API_KEY"))
	APIURL = strOr(os.Getenv("API_URL"), DefaultAPIURL)
	RelayURL = strOr(os.Getenv("RELAY_URL"), DefaultRelayURL)

	GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	Port = strOr(os.Getenv("PORT"), "3000")
	CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))

	AppEnv = os.Getenv("APP_ENV")
	IsProduction = AppEnv == "production"

	RateLimitIntervalMs = atoiOr(os.Getenv("RATE_LIMIT_INTERVAL_MS"), 700)
	RateLimitMaxClients = atoiOr(os.Getenv("RATE_LIMIT_MAX_CLIENTS"), 10000)
	CooldownMs = atoiOr(os.Getenv("COOLDOWN_MS"), 1500)
	CharDelayMs = atoiOr(os.Getenv("CHAR_DELAY_MS"), 18)
	UpstreamTimeoutSeconds = atoiOr(os.Getenv("UPSTREAM_TIMEOUT_SECONDS"), 30)

	log.Printf("[config] AppEnv=%q IsProduction=%v Port=%s", AppEnv, IsProduction, Port)
	log.Printf("[config] APIKeyPresent=%v GeminiAPIKeyPresent=%v APIURL=%s RelayURL=%s",
		APIKey != "", GeminiAPIKey != "", APIURL, RelayURL)
	log.Printf("[config] rateLimit=%dms maxClients=%d cooldown=%dms charDelay=%dms upstreamTimeout=%ds",
		RateLimitIntervalMs, RateLimitMaxClients, CooldownMs, CharDelayMs, UpstreamTimeoutSeconds)
}

func RateLimitInterval() time.Duration { return time.Duration(RateLimitIntervalMs) * time.Millisecond }
func Cooldown() time.Duration          { return time.Duration(CooldownMs) * time.Millisecond }
func CharDelay() time.Duration         { return time.Duration(CharDelayMs) * time.Millisecond }
func UpstreamTimeout() time.Duration   { return time.Duration(UpstreamTimeoutSeconds) * time.Second }

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
		return v
	}
	return def
}

func strOr(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
