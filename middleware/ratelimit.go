package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"Xiuchatbot/pkg/cache"

	"github.com/gin-gonic/gin"
)

// entries live for a few intervals; anything older can no longer block a request
const ttlIntervals = 4

// Limiter enforces a minimum interval between requests per client identity.
// Identities are held in a bounded, expiring cache so the map cannot grow without limit.
type Limiter struct {
	mu       sync.Mutex
	seen     *cache.Cache
	interval time.Duration
	scope    string
}

// NewLimiter creates a limiter for one route scope. maxClients bounds the number
// of tracked identities (least recently seen are dropped first).
func NewLimiter(scope string, interval time.Duration, maxClients int) *Limiter {
	sweep := interval * ttlIntervals
	if sweep < time.Second {
		sweep = time.Second
	}
	return &Limiter{
		seen:     cache.New(maxClients, sweep),
		interval: interval,
		scope:    scope,
	}
}

// Allow reports whether identity may proceed now and records the request when it may.
// Rejected requests do not refresh the timestamp.
func (l *Limiter) Allow(identity string) bool {
	_, ok := l.Reserve(identity)
	return ok
}

// Reserve is Allow that also reports the wait left when identity is refused.
func (l *Limiter) Reserve(identity string) (time.Duration, bool) {
	key := cache.KeyFromStrings(l.scope, identity)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.seen.Get(key); ok {
		if last, ok := v.(time.Time); ok {
			if elapsed := now.Sub(last); elapsed < l.interval {
				return l.interval - elapsed, false
			}
		}
	}
	l.seen.Set(key, now, l.interval*ttlIntervals)
	return 0, true
}

// Tracked reports how many identities are currently held.
func (l *Limiter) Tracked() int { return l.seen.Len() }

// Close stops the background sweeper.
func (l *Limiter) Close() { l.seen.Close() }

// ClientIP is the connecting address of the request. Forwarding headers are
// ignored so a client cannot pick its own identity.
func ClientIP(c *gin.Context) string {
	ip := strings.TrimSpace(c.RemoteIP())
	if ip == "" {
		host, _, _ := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		ip = host
	}
	if ip == "" {
		ip = "unknown"
	}
	return ip
}

// RateLimit rejects requests arriving faster than the limiter's interval for the
// connecting address.
func RateLimit(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(ClientIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests - slow down"})
			return
		}
		c.Next()
	}
}
