package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/service"
)

type fixedGate struct{ state domain.GateState }

func (g fixedGate) State() domain.GateState { return g.state }

func (g fixedGate) Decide(path string) domain.RouteDecision {
	return service.Decide(g.state, path)
}

func TestRequireReady(t *testing.T) {
	cases := []struct {
		state    domain.GateState
		page     string
		status   int
		redirect string
	}{
		{domain.GateReady, domain.RouteApp, http.StatusOK, ""},
		{domain.GateLoading, domain.RouteApp, http.StatusServiceUnavailable, ""},
		{domain.GateUnauthenticated, domain.RouteApp, http.StatusConflict, domain.RoutePublic},
		{domain.GateNeedsOnboarding, domain.RouteApp, http.StatusConflict, domain.RouteOnboarding},
		{domain.GateNeedsOnboarding, domain.RouteOnboarding, http.StatusOK, ""},
		{domain.GateReady, domain.RouteOnboarding, http.StatusConflict, domain.RouteApp},
	}
	for _, tc := range cases {
		t.Run(string(tc.state)+tc.page, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/data", nil), rec)

			err := RequireReady(fixedGate{tc.state}, tc.page)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusOK {
				return
			}
			var body gateResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Redirect != tc.redirect || body.State != string(tc.state) {
				t.Fatalf("unexpected body %+v", body)
			}
			if tc.state == domain.GateLoading && rec.Header().Get("Retry-After") == "" {
				t.Fatalf("expected Retry-After while loading")
			}
		})
	}
}
