package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/midnightlabs/midnight/internal/api/handler"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

// Auth validates the bearer token and injects its claims into the context.
func Auth(tokens ports.Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(handler.CtxUserID, claims.UserID)
			c.Set(handler.CtxDemo, claims.Demo)

			return next(c)
		}
	}
}

// MatchSession rejects tokens issued to a user other than the one currently
// signed in. It runs after Auth.
func MatchSession(current func() string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, _ := c.Get(handler.CtxUserID).(string)
			if uid == "" || uid != current() {
				return echo.NewHTTPError(http.StatusUnauthorized, "session has ended")
			}
			return next(c)
		}
	}
}
