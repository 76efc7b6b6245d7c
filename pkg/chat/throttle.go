package chat

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"
)

// DefaultCooldown is the minimum gap between two accepted sends.
const DefaultCooldown = 1500 * time.Millisecond

// ThrottleState remembers when this controller last accepted a send.
type ThrottleState struct {
	mu         sync.Mutex
	cooldown   time.Duration
	lastSentAt time.Time
}

func NewThrottleState(cooldown time.Duration) *ThrottleState {
	return &ThrottleState{cooldown: cooldown}
}

// Reserve records now as the last send when the cooldown has elapsed. Otherwise it
// returns the remaining wait and leaves the state untouched.
func (t *ThrottleState) Reserve(now time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.lastSentAt.IsZero() {
		if elapsed := now.Sub(t.lastSentAt); elapsed < t.cooldown {
			return t.cooldown - elapsed, false
		}
	}
	t.lastSentAt = now
	return 0, true
}

// Remaining is the wait left at now, zero when a send would pass.
func (t *ThrottleState) Remaining(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastSentAt.IsZero() {
		return 0
	}
	if elapsed := now.Sub(t.lastSentAt); elapsed < t.cooldown {
		return t.cooldown - elapsed
	}
	return 0
}

// ThrottleError rejects a send made inside the cooldown.
type ThrottleError struct {
	Remaining time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("chat: cooldown active, %ss remaining", WaitSeconds(e.Remaining))
}

// WaitSeconds rounds d up to one decimal second: 1234ms -> "1.3", 1000ms -> "1".
func WaitSeconds(d time.Duration) string {
	tenths := math.Ceil(float64(d) / float64(100*time.Millisecond))
	return strconv.FormatFloat(tenths/10, 'f', -1, 64)
}
