package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
	"github.com/midnightlabs/midnight/internal/pkg/metrics"
)

// DemoFlag is the shared demo-mode switch. SessionManager flips it; the
// remote guards read it before every call.
type DemoFlag struct {
	on atomic.Bool
}

func (f *DemoFlag) Enabled() bool { return f.on.Load() }
func (f *DemoFlag) Set(on bool)   { f.on.Store(on) }

// RemoteGuard wraps a RemoteStore so demo sessions never reach it. While
// demo mode is on, writes return a synthetic id and reads come back empty.
type RemoteGuard struct {
	next  ports.RemoteStore
	demo  *DemoFlag
	clock clock.Clock
	log   zerolog.Logger
}

func NewRemoteGuard(next ports.RemoteStore, demo *DemoFlag, clk clock.Clock, log zerolog.Logger) *RemoteGuard {
	return &RemoteGuard{next: next, demo: demo, clock: clk, log: log}
}

func (g *RemoteGuard) skip(op, collection, id string) bool {
	if !g.demo.Enabled() {
		return false
	}
	metrics.RemoteSuppressedTotal.WithLabelValues(op).Inc()
	g.log.Debug().Str("op", op).Str("collection", collection).Str("id", id).Msg("demo mode: remote call skipped")
	return true
}

// DemoID is the synthetic id handed out for suppressed writes.
func DemoID(c clock.Clock) string {
	return fmt.Sprintf("demo-%d", c.Now().UnixNano())
}

func (g *RemoteGuard) Create(ctx context.Context, collection string, doc any, id string) (string, error) {
	if g.skip("create", collection, id) {
		return DemoID(g.clock), nil
	}
	return g.next.Create(ctx, collection, doc, id)
}

func (g *RemoteGuard) GetOne(ctx context.Context, collection, id string) (ports.Document, error) {
	if g.skip("get_one", collection, id) {
		return nil, nil
	}
	return g.next.GetOne(ctx, collection, id)
}

func (g *RemoteGuard) GetByUser(ctx context.Context, collection, userID string) ([]ports.Document, error) {
	if g.skip("get_by_user", collection, userID) {
		return []ports.Document{}, nil
	}
	return g.next.GetByUser(ctx, collection, userID)
}

func (g *RemoteGuard) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if g.skip("update", collection, id) {
		return nil
	}
	return g.next.Update(ctx, collection, id, fields)
}

func (g *RemoteGuard) Delete(ctx context.Context, collection, id string) error {
	if g.skip("delete", collection, id) {
		return nil
	}
	return g.next.Delete(ctx, collection, id)
}

// ProfileGuard applies the same rule to the profile store.
type ProfileGuard struct {
	next ports.ProfileStore
	demo *DemoFlag
	log  zerolog.Logger
}

func NewProfileGuard(next ports.ProfileStore, demo *DemoFlag, log zerolog.Logger) *ProfileGuard {
	return &ProfileGuard{next: next, demo: demo, log: log}
}

type establishingKey struct{}

// withEstablishing marks ctx as the profile round trip of a verified
// identity. The profile guard lets calls for that user through even while
// demo mode is still on.
func withEstablishing(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, establishingKey{}, userID)
}

func (g *ProfileGuard) skip(ctx context.Context, op, userID string) bool {
	if !g.demo.Enabled() {
		return false
	}
	if uid, ok := ctx.Value(establishingKey{}).(string); ok && uid == userID {
		return false
	}
	metrics.RemoteSuppressedTotal.WithLabelValues("profile_" + op).Inc()
	g.log.Debug().Str("op", op).Str("user_id", userID).Msg("demo mode: profile call skipped")
	return true
}

func (g *ProfileGuard) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if g.skip(ctx, "get", userID) {
		return nil, nil
	}
	return g.next.Get(ctx, userID)
}

func (g *ProfileGuard) CreateIfAbsent(ctx context.Context, profile *domain.UserProfile) (bool, error) {
	if g.skip(ctx, "create", profile.ID) {
		return false, nil
	}
	return g.next.CreateIfAbsent(ctx, profile)
}

func (g *ProfileGuard) Merge(ctx context.Context, userID string, patch domain.ProfilePatch) error {
	if g.skip(ctx, "merge", userID) {
		return nil
	}
	return g.next.Merge(ctx, userID, patch)
}
