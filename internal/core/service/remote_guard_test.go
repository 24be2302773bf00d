package service

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
)

func TestRemoteGuard_DemoSuppressesEverything(t *testing.T) {
	spy := &spyRemote{}
	demo := &DemoFlag{}
	demo.Set(true)
	g := NewRemoteGuard(spy, demo, clock.NewFixed(t0), zerolog.Nop())
	ctx := context.Background()

	id, err := g.Create(ctx, "goals", map[string]any{"title": "x"}, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !strings.HasPrefix(id, "demo-") || id != DemoID(clock.NewFixed(t0)) {
		t.Fatalf("expected synthetic id, got %q", id)
	}
	if doc, err := g.GetOne(ctx, "goals", "g1"); doc != nil || err != nil {
		t.Fatalf("expected absent document, got %v, %v", doc, err)
	}
	docs, err := g.GetByUser(ctx, "goals", "u1")
	if err != nil || docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil list, got %v, %v", docs, err)
	}
	if err := g.Update(ctx, "goals", "g1", map[string]any{"title": "y"}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := g.Delete(ctx, "goals", "g1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if spy.count() != 0 {
		t.Fatalf("expected no remote calls, got %v", spy.calls)
	}
}

func TestRemoteGuard_PassesThroughOutsideDemo(t *testing.T) {
	spy := &spyRemote{}
	g := NewRemoteGuard(spy, &DemoFlag{}, clock.NewFixed(t0), zerolog.Nop())
	ctx := context.Background()

	id, err := g.Create(ctx, "goals", map[string]any{}, "g1")
	if err != nil || id != "g1" {
		t.Fatalf("expected pass-through create, got %q, %v", id, err)
	}
	_, _ = g.GetOne(ctx, "goals", "g1")
	_, _ = g.GetByUser(ctx, "goals", "u1")
	_ = g.Update(ctx, "goals", "g1", nil)
	_ = g.Delete(ctx, "goals", "g1")
	if spy.count() != 5 {
		t.Fatalf("expected 5 remote calls, got %d", spy.count())
	}
}

func TestProfileGuard_DemoSuppresses(t *testing.T) {
	profiles := newStubProfiles()
	demo := &DemoFlag{}
	demo.Set(true)
	g := NewProfileGuard(profiles, demo, zerolog.Nop())
	ctx := context.Background()

	if p, err := g.Get(ctx, "u1"); p != nil || err != nil {
		t.Fatalf("expected absent profile, got %v, %v", p, err)
	}
	if created, err := g.CreateIfAbsent(ctx, &domain.UserProfile{ID: "u1"}); created || err != nil {
		t.Fatalf("expected no create, got %v, %v", created, err)
	}
	if err := g.Merge(ctx, "u1", domain.ProfilePatch{}); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if profiles.calls() != 0 {
		t.Fatalf("expected no profile calls, got %d", profiles.calls())
	}

	demo.Set(false)
	if created, _ := g.CreateIfAbsent(ctx, &domain.UserProfile{ID: "u1"}); !created {
		t.Fatalf("expected create outside demo")
	}
}
