package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

func TestEvaluateGate(t *testing.T) {
	onboarded := &domain.UserProfile{ID: "u1", HasCompletedOnboarding: true}
	fresh := &domain.UserProfile{ID: "u2"}

	cases := []struct {
		name string
		s    domain.Session
		want domain.GateState
	}{
		{"loading wins over user", domain.Session{IsLoading: true, User: onboarded}, domain.GateLoading},
		{"no user", domain.Session{}, domain.GateUnauthenticated},
		{"needs onboarding", domain.Session{User: fresh}, domain.GateNeedsOnboarding},
		{"ready", domain.Session{User: onboarded}, domain.GateReady},
		{"demo needs onboarding", domain.Session{User: domain.NewDemoProfile(t0), IsDemo: true}, domain.GateNeedsOnboarding},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateGate(tc.s); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDecide_Table(t *testing.T) {
	render := domain.RouteDecision{Render: true}
	wait := domain.RouteDecision{Wait: true}
	to := func(p string) domain.RouteDecision { return domain.RouteDecision{Redirect: p} }

	cases := []struct {
		state domain.GateState
		path  string
		want  domain.RouteDecision
	}{
		{domain.GateLoading, "/onboarding", wait},
		{domain.GateLoading, "/app/goals", wait},
		{domain.GateLoading, "/login", wait},
		{domain.GateLoading, "/privacy", render},
		{domain.GateLoading, "/nowhere", wait},

		{domain.GateUnauthenticated, "/onboarding", to("/")},
		{domain.GateUnauthenticated, "/app", to("/")},
		{domain.GateUnauthenticated, "/", render},
		{domain.GateUnauthenticated, "/login/phone", render},
		{domain.GateUnauthenticated, "/terms", render},
		{domain.GateUnauthenticated, "/nowhere", to("/")},

		{domain.GateNeedsOnboarding, "/onboarding", render},
		{domain.GateNeedsOnboarding, "/onboarding/", render},
		{domain.GateNeedsOnboarding, "/app/habits", to("/onboarding")},
		{domain.GateNeedsOnboarding, "/signup", to("/onboarding")},
		{domain.GateNeedsOnboarding, "/faq", to("/onboarding")},
		{domain.GateNeedsOnboarding, "/nowhere", to("/onboarding")},

		{domain.GateReady, "/onboarding", to("/app")},
		{domain.GateReady, "/app", render},
		{domain.GateReady, "/app/journal/42", render},
		{domain.GateReady, "/forgot-password", to("/app")},
		{domain.GateReady, "/privacy", render},
		{domain.GateReady, "/nowhere", to("/app")},
		{domain.GateReady, "/application", to("/app")},
	}
	for _, tc := range cases {
		t.Run(string(tc.state)+tc.path, func(t *testing.T) {
			got := Decide(tc.state, tc.path)
			tc.want.State = tc.state
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestGate_StartsLoading(t *testing.T) {
	g := NewGate(zerolog.Nop())
	if g.State() != domain.GateLoading {
		t.Fatalf("expected loading, got %s", g.State())
	}
	if d := g.Decide("/app"); !d.Wait {
		t.Fatalf("expected wait while loading, got %+v", d)
	}
}

func TestGate_WatchFollowsSessions(t *testing.T) {
	g := NewGate(zerolog.Nop())
	ch := make(chan domain.Session)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Watch(ctx, ch)
		close(done)
	}()

	user := &domain.UserProfile{ID: "u1"}
	ch <- domain.Session{User: user}
	ch <- domain.Session{User: user} // Watch has applied the first value once this send completes.
	if g.State() != domain.GateNeedsOnboarding {
		t.Fatalf("expected needs_onboarding, got %s", g.State())
	}

	done2 := user.Clone()
	done2.HasCompletedOnboarding = true
	ch <- domain.Session{User: done2}
	ch <- domain.Session{User: done2}
	if g.State() != domain.GateReady {
		t.Fatalf("expected ready, got %s", g.State())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Watch did not stop after cancel")
	}
}

func TestGate_WithSessionManagerStream(t *testing.T) {
	f := newSessionFixture(t, false)
	f.init(t)
	g := NewGate(zerolog.Nop())

	sessions, cancel := f.mgr.Subscribe()
	defer cancel()
	g.Apply(<-sessions)
	if g.State() != domain.GateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", g.State())
	}

	_, _ = f.mgr.EnterDemoMode(context.Background())
	g.Apply(<-sessions)
	if d := g.Decide("/app"); d.Redirect != domain.RouteOnboarding {
		t.Fatalf("expected redirect to onboarding, got %+v", d)
	}
}

func TestGate_FollowSeesChangesImmediately(t *testing.T) {
	f := newSessionFixture(t, false)
	f.init(t)
	g := NewGate(zerolog.Nop())
	g.Follow(f.mgr.Current)

	if g.State() != domain.GateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", g.State())
	}
	if _, err := f.mgr.EnterDemoMode(context.Background()); err != nil {
		t.Fatalf("EnterDemoMode: %v", err)
	}
	if d := g.Decide("/onboarding"); !d.Render {
		t.Fatalf("expected onboarding to render right after demo sign-in, got %+v", d)
	}
}
