package service

import (
	"errors"
	"strings"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

var providerKinds = map[string]*domain.ProviderError{
	"popup-blocked":        domain.ErrPopupBlocked,
	"invalid-credential":   domain.ErrInvalidCredential,
	"wrong-password":       domain.ErrInvalidCredential,
	"user-not-found":       domain.ErrInvalidCredential,
	"invalid-email":        domain.ErrInvalidCredential,
	"too-many-requests":    domain.ErrRateLimited,
	"email-already-in-use": domain.ErrAccountExists,
	"weak-password":        domain.ErrWeakSecret,
}

var verificationKinds = map[string]*domain.VerificationError{
	"invalid-verification-code": domain.ErrInvalidCode,
	"code-expired":              domain.ErrCodeExpired,
	"missing-verification-id":   domain.ErrNoPendingVerification,
}

// identityCode returns the provider code without its "auth/" prefix.
func identityCode(err error) (string, bool) {
	var ie *ports.IdentityError
	if !errors.As(err, &ie) {
		return "", false
	}
	return strings.TrimPrefix(ie.Code, "auth/"), true
}

// mapProviderError turns an identity failure into a *domain.ProviderError.
func mapProviderError(err error) error {
	if err == nil {
		return nil
	}
	code, ok := identityCode(err)
	if !ok {
		return &domain.ProviderError{Kind: domain.ProviderUnknown, Message: domain.ErrProviderUnknown.Message}
	}
	switch code {
	case "invalid-phone-number":
		return domain.NewValidationError("phone", "Invalid phone number. Please check and try again.")
	case "captcha-check-failed":
		return domain.NewValidationError("challenge", "Verification check failed. Please try again.")
	}
	base, known := providerKinds[code]
	if !known {
		base = domain.ErrProviderUnknown
	}
	return &domain.ProviderError{Kind: base.Kind, Code: code, Message: base.Message}
}

// mapVerificationError handles confirmation failures, falling back to the
// provider taxonomy for codes outside the verification set.
func mapVerificationError(err error) error {
	if code, ok := identityCode(err); ok {
		if v, known := verificationKinds[code]; known {
			return v
		}
	}
	return mapProviderError(err)
}
