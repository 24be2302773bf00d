package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys set by the Auth middleware.
const (
	CtxUserID = "user_id"
	CtxDemo   = "demo"
)

// ctxUserID returns the authenticated user id. An empty id means the Auth
// middleware did not run for this route.
func ctxUserID(c echo.Context) (string, error) {
	uid, _ := c.Get(CtxUserID).(string)
	if uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return uid, nil
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
