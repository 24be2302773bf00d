package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/infrastructure/identity"
	"github.com/midnightlabs/midnight/internal/infrastructure/memory"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
	"github.com/midnightlabs/midnight/internal/pkg/config"
)

type echoAssistant struct{}

func (echoAssistant) Reply(_ context.Context, prompt string, _ *domain.AssistantContext) (string, error) {
	return "you said: " + prompt, nil
}

type harness struct {
	app     *App
	e       *echo.Echo
	clock   *clock.Fixed
	idp     *identity.Emulator
	records *memory.Records
	dir     string
}

// newHarness starts an instance on dir. A nil idp gets a fresh emulator;
// passing the previous one keeps its signed-in identity across instances.
func newHarness(t *testing.T, dir string, idp *identity.Emulator) *harness {
	t.Helper()
	clk := clock.NewFixed(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	if idp == nil {
		idp = identity.NewEmulator(identity.Options{
			Stash: memory.NewRedirectStash(clk),
			Clock: clk,
			OAuth: map[domain.AuthProvider]domain.Identity{
				domain.ProviderGoogle: {UID: "google-1", Email: "g@example.com", DisplayName: "G"},
			},
		}, zerolog.Nop())
	}
	records := memory.NewRecords()

	cfg := &config.Config{
		Env:           "development",
		JWTSecret:     "test-secret",
		DataDir:       dir,
		TokenTTL:      time.Hour,
		MirrorWorkers: 2,
		ResendWindow:  time.Minute,
	}
	a, err := New(context.Background(), cfg, Options{
		Clock:     clk,
		Identity:  idp,
		Assistant: echoAssistant{},
		Profiles:  memory.NewProfiles(),
		Records:   records,
		Registry:  prometheus.NewRegistry(),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Init(context.Background()))

	return &harness{app: a, e: a.Router(), clock: clk, idp: idp, records: records, dir: dir}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func token(t *testing.T, body map[string]any) string {
	t.Helper()
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok, "response carries no token: %v", body)
	return tok
}

func TestApp_UnauthenticatedAccess(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	defer h.app.Teardown(context.Background())

	rec, body := h.do(t, http.MethodGet, "/api/gate?path=/app/goals", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unauthenticated", body["state"])
	assert.Equal(t, "/", body["redirect"])

	rec, _ = h.do(t, http.MethodGet, "/api/data", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = h.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestApp_DemoSessionNeverReachesRemote(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)

	rec, body := h.do(t, http.MethodPost, "/api/session/demo", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tok := token(t, body)

	rec, body = h.do(t, http.MethodGet, "/api/data", tok, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.RouteOnboarding, body["redirect"])

	rec, _ = h.do(t, http.MethodPost, "/api/me/onboarding/skip", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = h.do(t, http.MethodPost, "/api/goals", tok, map[string]any{"title": "Run a 10k", "category": "health"})
	require.Equal(t, http.StatusCreated, rec.Code)
	goalID, _ := body["id"].(string)
	require.NotEmpty(t, goalID)

	rec, _ = h.do(t, http.MethodPost, "/api/tasks", tok, map[string]any{"title": "Buy shoes", "priority": "high"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body = h.do(t, http.MethodGet, "/api/dashboard", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["goalsTotal"])

	h.app.Teardown(context.Background())
	assert.Zero(t, h.records.Len(ports.CollectionGoals))
	assert.Zero(t, h.records.Len(ports.CollectionTasks))
}

func TestApp_EmailUserIsMirroredAndRestored(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, dir, nil)

	rec, body := h.do(t, http.MethodPost, "/api/session/email/signup", "", map[string]string{"email": "ana@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tok := token(t, body)

	rec, _ = h.do(t, http.MethodPost, "/api/me/onboarding", tok, map[string]any{"mindfulnessLevel": 70, "evolutionPath": "sage", "displayName": "Ana"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = h.do(t, http.MethodPost, "/api/habits", tok, map[string]any{"title": "Meditate", "isActive": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	habitID := body["id"].(string)

	rec, body = h.do(t, http.MethodPost, "/api/habits/"+habitID+"/complete", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["streak"])

	rec, _ = h.do(t, http.MethodPatch, "/api/habits/missing", tok, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = h.do(t, http.MethodPost, "/api/assistant/chat", tok, map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "you said: hi", body["content"])

	h.app.Teardown(context.Background())
	assert.Equal(t, 1, h.records.Len(ports.CollectionHabits))

	// A second instance on the same directory restores session and data.
	again := newHarness(t, dir, h.idp)
	defer again.app.Teardown(context.Background())
	assert.Equal(t, domain.GateReady, again.app.Gate.State())
	require.Len(t, again.app.Data.Snapshot().Habits, 1)
	assert.Len(t, again.app.Data.Snapshot().ChatMessages, 2)
}

func TestApp_SignOutInvalidatesToken(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	defer h.app.Teardown(context.Background())

	rec, body := h.do(t, http.MethodPost, "/api/session/provider", "", map[string]string{"provider": "google"})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := token(t, body)

	rec, _ = h.do(t, http.MethodPost, "/api/session/signout", tok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = h.do(t, http.MethodPatch, "/api/me/settings", tok, map[string]string{"theme": "dark"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApp_PhoneResendCooldownAndStaleCode(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	defer h.app.Teardown(context.Background())
	const phone = "+15551234567"

	rec, body := h.do(t, http.MethodPost, "/api/session/phone/challenge", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	challengeID := body["challengeId"].(string)

	rec, body = h.do(t, http.MethodPost, "/api/session/phone/send", "", map[string]string{"phone": "(555) 123-4567", "challengeId": challengeID})
	require.Equal(t, http.StatusAccepted, rec.Code)
	firstHandle := body["verificationId"].(string)
	firstCode, ok := h.idp.LastCode(phone)
	require.True(t, ok)

	rec, _ = h.do(t, http.MethodPost, "/api/session/phone/resend", "", map[string]string{"phone": "5551234567"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	h.clock.Advance(61 * time.Second)
	rec, body = h.do(t, http.MethodPost, "/api/session/phone/resend", "", map[string]string{"phone": "5551234567"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	secondHandle := body["verificationId"].(string)
	secondCode, _ := h.idp.LastCode(phone)

	rec, body = h.do(t, http.MethodPost, "/api/session/phone/confirm", "", map[string]string{"verificationId": firstHandle, "code": firstCode})
	require.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, string(domain.VerificationCodeExpired), body["code"])

	rec, body = h.do(t, http.MethodPost, "/api/session/phone/confirm", "", map[string]string{"verificationId": secondHandle, "code": secondCode})
	require.Equal(t, http.StatusOK, rec.Code)
	token(t, body)
	assert.Equal(t, domain.GateNeedsOnboarding, h.app.Gate.State())
}

func TestApp_ProviderErrorsRenderInline(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	defer h.app.Teardown(context.Background())

	rec, body := h.do(t, http.MethodPost, "/api/session/email/signin", "", map[string]string{"email": "nobody@example.com", "password": "whatever"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.ErrInvalidCredential.Message, body["error"])

	rec, body = h.do(t, http.MethodPost, "/api/session/email/signup", "", map[string]string{"email": "bo@example.com", "password": "abc"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
}
