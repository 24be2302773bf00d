package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedirectStash holds completed redirect sign-ins until the app instance
// reads them back. Entries are consumed on read.
// Key format: redirect:<instance>
type RedirectStash struct {
	client *redis.Client
}

func NewRedirectStash(client *redis.Client) *RedirectStash {
	return &RedirectStash{client: client}
}

func (s *RedirectStash) Put(ctx context.Context, instance, uid string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(instance), uid, ttl).Err(); err != nil {
		return fmt.Errorf("stash redirect: %w", err)
	}
	return nil
}

// Take returns the stashed uid and removes it. ok is false when nothing is
// pending.
func (s *RedirectStash) Take(ctx context.Context, instance string) (string, bool, error) {
	uid, err := s.client.GetDel(ctx, s.key(instance)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("take redirect: %w", err)
	}
	return uid, true, nil
}

func (s *RedirectStash) key(instance string) string {
	return fmt.Sprintf("redirect:%s", instance)
}
