package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

// DefaultResendWindow is the minimum gap between two codes sent to one number.
const DefaultResendWindow = 60 * time.Second

// PhoneHandler drives the phone verification flow. Sending a code is
// throttled per number.
type PhoneHandler struct {
	sessions ports.SessionService
	tokens   ports.Tokens
	cooldown ports.Cooldown
	window   time.Duration
}

func NewPhoneHandler(sessions ports.SessionService, tokens ports.Tokens, cooldown ports.Cooldown, window time.Duration) *PhoneHandler {
	if window <= 0 {
		window = DefaultResendWindow
	}
	return &PhoneHandler{sessions: sessions, tokens: tokens, cooldown: cooldown, window: window}
}

type challengeRequest struct {
	AnchorID string `json:"anchorId"`
}

type challengeResponse struct {
	ChallengeID string `json:"challengeId"`
}

type sendCodeRequest struct {
	Phone       string `json:"phone" validate:"required"`
	ChallengeID string `json:"challengeId" validate:"required"`
}

type resendCodeRequest struct {
	Phone    string `json:"phone" validate:"required"`
	AnchorID string `json:"anchorId"`
}

type confirmCodeRequest struct {
	VerificationID string `json:"verificationId" validate:"required"`
	Code           string `json:"code" validate:"required"`
}

type verificationResponse struct {
	domain.VerificationHandle
	ResendAfterSeconds int `json:"resendAfterSeconds"`
}

// Challenge creates a phone verification challenge.
//
// @Summary      Create a phone verification challenge
// @Tags         phone
// @Accept       json
// @Produce      json
// @Param        body  body      challengeRequest  false  "Anchor element id"
// @Success      201   {object}  challengeResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/session/phone/challenge [post]
func (h *PhoneHandler) Challenge(c echo.Context) error {
	var req challengeRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	id, err := h.sessions.NewPhoneChallenge(req.AnchorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, challengeResponse{ChallengeID: id})
}

// throttle starts the resend window for phone or answers 429.
func (h *PhoneHandler) throttle(c echo.Context, phone string) error {
	remaining, ok, err := h.cooldown.Acquire(c.Request().Context(), "phone:"+phone, h.window)
	if err != nil {
		return err
	}
	if !ok {
		secs := int(math.Ceil(remaining.Seconds()))
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
		return echo.NewHTTPError(http.StatusTooManyRequests, "Please wait "+strconv.Itoa(secs)+"s before requesting another code.")
	}
	return nil
}

// SendCode texts a code to the number. Sends are throttled per number.
//
// @Summary      Send a verification code
// @Tags         phone
// @Accept       json
// @Produce      json
// @Param        body  body      sendCodeRequest  true  "Phone number and challenge"
// @Success      202   {object}  verificationResponse
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/session/phone/send [post]
func (h *PhoneHandler) SendCode(c echo.Context) error {
	var req sendCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	phone, err := domain.NormalizeUSPhone(req.Phone)
	if err != nil {
		return err
	}
	if err := h.throttle(c, phone); err != nil {
		return err
	}
	handle, err := h.sessions.BeginPhoneVerification(c.Request().Context(), phone, req.ChallengeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, verificationResponse{VerificationHandle: handle, ResendAfterSeconds: int(h.window.Seconds())})
}

// ResendCode retires the pending code and sends a new one.
//
// @Summary      Resend a verification code
// @Tags         phone
// @Accept       json
// @Produce      json
// @Param        body  body      resendCodeRequest  true  "Phone number"
// @Success      202   {object}  verificationResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/session/phone/resend [post]
func (h *PhoneHandler) ResendCode(c echo.Context) error {
	var req resendCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	phone, err := domain.NormalizeUSPhone(req.Phone)
	if err != nil {
		return err
	}
	if err := h.throttle(c, phone); err != nil {
		return err
	}
	handle, err := h.sessions.ResendPhoneCode(c.Request().Context(), phone, req.AnchorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, verificationResponse{VerificationHandle: handle, ResendAfterSeconds: int(h.window.Seconds())})
}

// ConfirmCode confirms a verification code.
//
// @Summary      Confirm a verification code
// @Tags         phone
// @Accept       json
// @Produce      json
// @Param        body  body      confirmCodeRequest  true  "Verification id and code"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/session/phone/confirm [post]
func (h *PhoneHandler) ConfirmCode(c echo.Context) error {
	var req confirmCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s, err := h.sessions.ConfirmPhoneCode(c.Request().Context(), req.VerificationID, req.Code)
	if err != nil {
		return err
	}
	token, err := h.tokens.Issue(s)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{Session: s, Token: token})
}
