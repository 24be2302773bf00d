package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/service"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps categorized
// errors to status codes with their user-facing message, and logs anything
// unexpected without leaking it to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

var providerStatus = map[domain.ProviderErrorKind]int{
	domain.ProviderPopupBlocked:      http.StatusConflict,
	domain.ProviderInvalidCredential: http.StatusUnauthorized,
	domain.ProviderRateLimited:       http.StatusTooManyRequests,
	domain.ProviderAccountExists:     http.StatusConflict,
	domain.ProviderWeakSecret:        http.StatusBadRequest,
	domain.ProviderUnknown:           http.StatusBadGateway,
}

var verificationStatus = map[domain.VerificationErrorKind]int{
	domain.VerificationNoPending:   http.StatusConflict,
	domain.VerificationInvalidCode: http.StatusUnprocessableEntity,
	domain.VerificationCodeExpired: http.StatusGone,
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		if pe.Kind == domain.ProviderUnknown {
			log.Warn().Err(err).Str("provider_code", pe.Code).Str("path", c.Path()).Msg("identity provider error")
		}
		return providerStatus[pe.Kind], errorResponse{Error: pe.Error(), Code: string(pe.Kind)}
	}
	var ve *domain.VerificationError
	if errors.As(err, &ve) {
		return verificationStatus[ve.Kind], errorResponse{Error: ve.Error(), Code: string(ve.Kind)}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: domain.UserMessage(err), Code: "validation"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not-found"}
	case errors.Is(err, domain.ErrNoSession), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Error: domain.UserMessage(domain.ErrNoSession), Code: "no-session"}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
