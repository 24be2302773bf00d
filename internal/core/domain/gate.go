package domain

import "strings"

// GateState is the routing state derived from the session.
type GateState string

const (
	GateLoading         GateState = "loading"
	GateUnauthenticated GateState = "unauthenticated"
	GateNeedsOnboarding GateState = "needs_onboarding"
	GateReady           GateState = "ready"
)

// Well-known routes.
const (
	RoutePublic     = "/"
	RouteOnboarding = "/onboarding"
	RouteApp        = "/app"
)

// RouteClass groups request paths that the gate treats alike.
type RouteClass string

const (
	RouteClassOnboarding RouteClass = "onboarding"
	RouteClassProtected  RouteClass = "protected"
	RouteClassPublic     RouteClass = "public"
	RouteClassLegal      RouteClass = "legal"
	RouteClassUnknown    RouteClass = "unknown"
)

var publicRoutes = map[string]bool{
	"/":                true,
	"/login":           true,
	"/signup":          true,
	"/login/email":     true,
	"/login/phone":     true,
	"/forgot-password": true,
}

var legalRoutes = map[string]bool{
	"/privacy": true,
	"/terms":   true,
	"/faq":     true,
}

// ClassifyRoute maps a request path to its RouteClass.
func ClassifyRoute(path string) RouteClass {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	switch {
	case path == RouteOnboarding:
		return RouteClassOnboarding
	case path == RouteApp || strings.HasPrefix(path, RouteApp+"/"):
		return RouteClassProtected
	case publicRoutes[path]:
		return RouteClassPublic
	case legalRoutes[path]:
		return RouteClassLegal
	}
	return RouteClassUnknown
}

// RouteDecision is the outcome of evaluating one path against a gate state.
// Exactly one of Render, Wait or a non-empty Redirect holds.
type RouteDecision struct {
	State    GateState `json:"state"`
	Render   bool      `json:"render"`
	Wait     bool      `json:"wait"`
	Redirect string    `json:"redirect,omitempty"`
}
