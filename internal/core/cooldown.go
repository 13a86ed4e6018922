package core

import (
	"sync"
	"time"
)

// DefaultCooldownWindow is the minimum gap between accepted global-room
// posts from the same user.
const DefaultCooldownWindow = 10 * time.Second

// Cooldown is the per-user throttle for global-room posts. It keeps only
// the last accepted timestamp per username and evicts entries once they
// fall outside the window, so the map stays bounded by the number of
// users active within one window. State is volatile; restarts reset all
// cooldowns.
type Cooldown struct {
	mu        sync.Mutex
	window    time.Duration
	lastPost  map[string]time.Time
	lastSweep time.Time
}

// NewCooldown builds a limiter with the given window. A non-positive
// window falls back to DefaultCooldownWindow.
func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	return &Cooldown{
		window:   window,
		lastPost: make(map[string]time.Time),
	}
}

// Window returns the configured cooldown duration.
func (c *Cooldown) Window() time.Duration {
	return c.window
}

// CheckAndRecord reports how long the user must still wait, in whole
// seconds rounded up; zero means the post is accepted and now becomes the
// user's new last-accepted timestamp. Rejected attempts do not touch
// state, so hammering the endpoint never extends the wait.
func (c *Cooldown) CheckAndRecord(username string, now time.Time) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep(now)

	if last, ok := c.lastPost[username]; ok {
		elapsed := now.Sub(last)
		if elapsed < c.window {
			remaining := c.window - elapsed
			return int64((remaining + time.Second - 1) / time.Second)
		}
	}
	c.lastPost[username] = now
	return 0
}

// sweep drops entries whose cooldown has fully elapsed. Runs at most once
// per window so repeated calls stay cheap.
func (c *Cooldown) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.window {
		return
	}
	c.lastSweep = now
	for user, last := range c.lastPost {
		if now.Sub(last) >= c.window {
			delete(c.lastPost, user)
		}
	}
}
