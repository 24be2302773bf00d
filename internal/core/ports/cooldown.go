package ports

import (
	"context"
	"time"
)

// Cooldown throttles repeated actions per key.
type Cooldown interface {
	// Acquire starts a window for key. When a window is already running it
	// returns ok=false and the time left in it.
	Acquire(ctx context.Context, key string, window time.Duration) (remaining time.Duration, ok bool, err error)
}
