package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

// SessionHandler serves sign-in, sign-out and profile settings.
type SessionHandler struct {
	sessions ports.SessionService
	tokens   ports.Tokens
}

func NewSessionHandler(sessions ports.SessionService, tokens ports.Tokens) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens}
}

type sessionResponse struct {
	Session domain.Session `json:"session"`
	Token   string         `json:"token,omitempty"`
	Pending bool           `json:"pending,omitempty"`
}

type providerRequest struct {
	Provider domain.AuthProvider `json:"provider" validate:"required"`
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required"`
}

type recoveryResponse struct {
	sessionResponse
	Recovered      bool `json:"recovered"`
	AlreadyChecked bool `json:"alreadyChecked"`
}

// respond renders s with a fresh token when a user is signed in.
func (h *SessionHandler) respond(c echo.Context, status int, s domain.Session, pending bool) error {
	resp, err := h.withToken(s)
	if err != nil {
		return err
	}
	resp.Pending = pending
	return c.JSON(status, resp)
}

func (h *SessionHandler) withToken(s domain.Session) (sessionResponse, error) {
	resp := sessionResponse{Session: s}
	if s.User == nil {
		return resp, nil
	}
	token, err := h.tokens.Issue(s)
	if err != nil {
		return sessionResponse{}, err
	}
	resp.Token = token
	return resp, nil
}

// Current returns the live session without a token.
//
// @Summary      Get the current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionResponse{Session: h.sessions.Current()})
}

// SignInWithProvider answers 202 when the sign-in continues through a
// redirect.
//
// @Summary      Sign in with Google or Apple
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      providerRequest  true  "OAuth provider"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/session/provider [post]
func (h *SessionHandler) SignInWithProvider(c echo.Context) error {
	var req providerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.sessions.SignInWithProvider(c.Request().Context(), req.Provider)
	if err != nil {
		return err
	}
	if res.Pending {
		return h.respond(c, http.StatusAccepted, res.Session, true)
	}
	return h.respond(c, http.StatusOK, res.Session, false)
}

// RecoverRedirect reports the outcome of the one-shot redirect check.
//
// @Summary      Recover a redirect sign-in
// @Tags         session
// @Produce      json
// @Success      200  {object}  recoveryResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/session/redirect [post]
func (h *SessionHandler) RecoverRedirect(c echo.Context) error {
	r := h.sessions.RecoverRedirectResult(c.Request().Context())
	resp, err := h.withToken(h.sessions.Current())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recoveryResponse{
		sessionResponse: resp,
		Recovered:       r.User != nil,
		AlreadyChecked:  r.AlreadyChecked,
	})
}

// SignInWithEmail signs in with email and password.
//
// @Summary      Sign in with email and password
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/session/email/signin [post]
func (h *SessionHandler) SignInWithEmail(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s, err := h.sessions.SignInWithEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, s, false)
}

// SignUpWithEmail creates an email account.
//
// @Summary      Create an email account
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email credentials"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/session/email/signup [post]
func (h *SessionHandler) SignUpWithEmail(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s, err := h.sessions.SignUpWithEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, s, false)
}

// RequestPasswordReset always answers 202 so account existence is not
// revealed.
//
// @Summary      Request a password reset email
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequest  true  "Account email"
// @Success      202
// @Failure      400   {object}  map[string]string
// @Router       /api/session/password-reset [post]
func (h *SessionHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.sessions.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

// EnterDemo starts a local-only demo session.
//
// @Summary      Start a local-only demo session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/session/demo [post]
func (h *SessionHandler) EnterDemo(c echo.Context) error {
	s, err := h.sessions.EnterDemoMode(c.Request().Context())
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, s, false)
}

// SignOut ends the session and the identity sign-in.
//
// @Summary      Sign out
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/session/signout [post]
func (h *SessionHandler) SignOut(c echo.Context) error {
	if err := h.sessions.SignOut(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateSettings updates user settings.
//
// @Summary      Update user settings
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.SettingsPatch  true  "Settings to change"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/me/settings [patch]
func (h *SessionHandler) UpdateSettings(c echo.Context) error {
	var patch domain.SettingsPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	s, err := h.sessions.UpdateSettings(c.Request().Context(), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{Session: s})
}

// CompleteOnboarding saves the onboarding wizard.
//
// @Summary      Save the onboarding wizard
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      ports.OnboardingInput  true  "Wizard answers"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/me/onboarding [post]
func (h *SessionHandler) CompleteOnboarding(c echo.Context) error {
	var in ports.OnboardingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	s, err := h.sessions.CompleteOnboarding(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{Session: s})
}

// SkipOnboarding accepts an empty body.
//
// @Summary      Skip the onboarding wizard
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      ports.OnboardingInput  false  "Optional wizard answers"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/me/onboarding/skip [post]
func (h *SessionHandler) SkipOnboarding(c echo.Context) error {
	var in ports.OnboardingInput
	if c.Request().ContentLength > 0 {
		if err := bind(c, &in); err != nil {
			return err
		}
	}
	s, err := h.sessions.SkipOnboarding(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{Session: s})
}
