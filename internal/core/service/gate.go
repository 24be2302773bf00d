package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/pkg/metrics"
)

// EvaluateGate derives the routing state from a session.
func EvaluateGate(s domain.Session) domain.GateState {
	switch {
	case s.IsLoading:
		return domain.GateLoading
	case s.User == nil:
		return domain.GateUnauthenticated
	case !s.User.HasCompletedOnboarding:
		return domain.GateNeedsOnboarding
	default:
		return domain.GateReady
	}
}

// Decide routes path for state. Legal pages stay reachable in every state
// except NeedsOnboarding; Loading waits everywhere else.
func Decide(state domain.GateState, path string) domain.RouteDecision {
	d := domain.RouteDecision{State: state}
	class := domain.ClassifyRoute(path)

	switch state {
	case domain.GateLoading:
		if class == domain.RouteClassLegal {
			d.Render = true
		} else {
			d.Wait = true
		}
	case domain.GateUnauthenticated:
		switch class {
		case domain.RouteClassPublic, domain.RouteClassLegal:
			d.Render = true
		default:
			d.Redirect = domain.RoutePublic
		}
	case domain.GateNeedsOnboarding:
		if class == domain.RouteClassOnboarding {
			d.Render = true
		} else {
			d.Redirect = domain.RouteOnboarding
		}
	case domain.GateReady:
		switch class {
		case domain.RouteClassProtected, domain.RouteClassLegal:
			d.Render = true
		default:
			d.Redirect = domain.RouteApp
		}
	default:
		d.Wait = true
	}
	return d
}

func outcome(d domain.RouteDecision) string {
	switch {
	case d.Render:
		return "render"
	case d.Wait:
		return "wait"
	default:
		return "redirect"
	}
}

// Gate keeps the current GateState in step with the session stream.
type Gate struct {
	mu      sync.RWMutex
	state   domain.GateState
	current func() domain.Session
	log     zerolog.Logger
}

// NewGate starts in Loading until the first session arrives.
func NewGate(log zerolog.Logger) *Gate {
	return &Gate{state: domain.GateLoading, log: log}
}

// Apply re-evaluates the gate for s.
func (g *Gate) Apply(s domain.Session) domain.GateState {
	next := EvaluateGate(s)
	g.mu.Lock()
	prev := g.state
	g.state = next
	g.mu.Unlock()
	if prev != next {
		g.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("gate state changed")
	}
	return next
}

// Watch applies every session from sessions until ctx ends or the channel
// closes.
func (g *Gate) Watch(ctx context.Context, sessions <-chan domain.Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-sessions:
			if !ok {
				return
			}
			g.Apply(s)
		}
	}
}

// Follow makes every State and Decide call re-evaluate current() first, so
// a decision never trails a session change its caller already saw.
func (g *Gate) Follow(current func() domain.Session) {
	g.mu.Lock()
	g.current = current
	g.mu.Unlock()
}

func (g *Gate) State() domain.GateState {
	g.mu.RLock()
	current := g.current
	g.mu.RUnlock()
	if current != nil {
		return g.Apply(current())
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Decide routes path against the current state.
func (g *Gate) Decide(path string) domain.RouteDecision {
	d := Decide(g.State(), path)
	metrics.GateDecisionsTotal.WithLabelValues(string(d.State), outcome(d)).Inc()
	return d
}
