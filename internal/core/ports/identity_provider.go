package ports

import (
	"context"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

// IdentityError is the raw failure reported by an IdentityProvider. Code is
// the provider's own code string, e.g. "auth/popup-blocked".
type IdentityError struct {
	Code    string
	Message string
}

func (e *IdentityError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

// PhoneChallenge is an anti-abuse challenge bound to a UI anchor element.
type PhoneChallenge interface {
	ID() string
	// Clear invalidates the challenge. Safe to call more than once.
	Clear()
}

// PhoneConfirmation is returned after a code was sent to a phone number.
type PhoneConfirmation interface {
	Confirm(ctx context.Context, code string) (*domain.Identity, error)
}

// IdentityProvider is the call surface of the external identity service.
type IdentityProvider interface {
	SignInPopup(ctx context.Context, provider domain.AuthProvider) (*domain.Identity, error)
	SignInRedirect(ctx context.Context, provider domain.AuthProvider) error
	// GetRedirectResult returns nil, nil when no redirect sign-in is pending.
	GetRedirectResult(ctx context.Context) (*domain.Identity, error)
	SignInEmailPassword(ctx context.Context, email, password string) (*domain.Identity, error)
	CreateEmailPassword(ctx context.Context, email, password string) (*domain.Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	CreatePhoneChallenge(anchorID string) (PhoneChallenge, error)
	SendPhoneCode(ctx context.Context, e164 string, challenge PhoneChallenge) (PhoneConfirmation, error)
	SignOut(ctx context.Context) error
	// Subscribe registers fn for identity transitions. fn is called once with
	// the current identity (nil when signed out) and then on every change.
	Subscribe(fn func(*domain.Identity)) (unsubscribe func())
}
