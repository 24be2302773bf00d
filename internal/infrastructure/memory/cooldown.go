// Package memory holds in-process stand-ins for the Redis-backed adapters,
// used when no Redis address is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
)

// Cooldown keeps one expiry per key.
type Cooldown struct {
	mu      sync.Mutex
	clock   clock.Clock
	expires map[string]time.Time
}

var _ ports.Cooldown = (*Cooldown)(nil)

func NewCooldown(clk clock.Clock) *Cooldown {
	if clk == nil {
		clk = clock.System{}
	}
	return &Cooldown{clock: clk, expires: make(map[string]time.Time)}
}

func (c *Cooldown) Acquire(_ context.Context, key string, window time.Duration) (time.Duration, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if until, ok := c.expires[key]; ok && now.Before(until) {
		return until.Sub(now), false, nil
	}
	c.expires[key] = now.Add(window)
	return 0, true, nil
}
