package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	require.NoError(t, h(c))
	var body readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	require.NoError(t, NewHealthHandler().Liveness(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewReadinessHandler(map[string]Check{
		"local": func(context.Context) error { return nil },
	})
	rec, body := serve(t, h.Readiness)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Dependencies["local"].Status)
}

func TestReadiness_Degraded(t *testing.T) {
	ready := false
	h := NewReadinessHandler(map[string]Check{
		"remote":  func(context.Context) error { return errors.New("connection refused") },
		"session": ReadyCheck(func() bool { return ready }, "session still loading"),
	})
	rec, body := serve(t, h.Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "connection refused", body.Dependencies["remote"].Error)
	assert.Equal(t, "session still loading", body.Dependencies["session"].Error)

	ready = true
	_, body = serve(t, NewReadinessHandler(map[string]Check{
		"session": ReadyCheck(func() bool { return ready }, "session still loading"),
	}).Readiness)
	assert.Equal(t, "ok", body.Status)
}
