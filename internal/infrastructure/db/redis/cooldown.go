package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/midnightlabs/midnight/internal/core/ports"
)

// Cooldown throttles actions with one expiring key per window.
// Key format: cooldown:<key>
type Cooldown struct {
	client *redis.Client
}

var _ ports.Cooldown = (*Cooldown)(nil)

func NewCooldown(client *redis.Client) *Cooldown {
	return &Cooldown{client: client}
}

// Acquire claims the window for key. While a window is running it reports
// the time left instead.
func (c *Cooldown) Acquire(ctx context.Context, key string, window time.Duration) (time.Duration, bool, error) {
	k := c.key(key)
	ok, err := c.client.SetNX(ctx, k, "1", window).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown acquire: %w", err)
	}
	if ok {
		return 0, true, nil
	}
	left, err := c.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown ttl: %w", err)
	}
	if left < 0 {
		left = 0
	}
	return left, false, nil
}

func (c *Cooldown) key(key string) string {
	return fmt.Sprintf("cooldown:%s", key)
}
