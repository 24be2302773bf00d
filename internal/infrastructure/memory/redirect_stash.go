package memory

import (
	"context"
	"sync"
	"time"

	"github.com/midnightlabs/midnight/internal/pkg/clock"
)

type stashed struct {
	uid     string
	expires time.Time
}

// RedirectStash keeps pending redirect sign-ins in process memory.
type RedirectStash struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]stashed
}

func NewRedirectStash(clk clock.Clock) *RedirectStash {
	if clk == nil {
		clk = clock.System{}
	}
	return &RedirectStash{clock: clk, entries: make(map[string]stashed)}
}

func (s *RedirectStash) Put(_ context.Context, instance, uid string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[instance] = stashed{uid: uid, expires: s.clock.Now().Add(ttl)}
	return nil
}

func (s *RedirectStash) Take(_ context.Context, instance string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[instance]
	delete(s.entries, instance)
	if !ok || !s.clock.Now().Before(e.expires) {
		return "", false, nil
	}
	return e.uid, true, nil
}
