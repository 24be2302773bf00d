package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/midnightlabs/midnight/internal/core/ports"
)

type gateResponse struct {
	Error    string `json:"error"`
	State    string `json:"state"`
	Redirect string `json:"redirect,omitempty"`
}

// RequireReady lets a request through only when the gate would render page
// for the current session. While the session loads it answers 503 with a
// Retry-After hint; otherwise 409 with the page to go to.
func RequireReady(gate ports.GateService, page string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := gate.Decide(page)
			switch {
			case d.Render:
				return next(c)
			case d.Wait:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, gateResponse{
					Error: "session is still loading",
					State: string(d.State),
				})
			default:
				return c.JSON(http.StatusConflict, gateResponse{
					Error:    "not available in the current session state",
					State:    string(d.State),
					Redirect: d.Redirect,
				})
			}
		}
	}
}
