package domain

import (
	"errors"
	"fmt"
)

// ProviderErrorKind classifies failures reported by the identity provider.
type ProviderErrorKind string

const (
	ProviderPopupBlocked      ProviderErrorKind = "popup-blocked"
	ProviderInvalidCredential ProviderErrorKind = "invalid-credential"
	ProviderRateLimited       ProviderErrorKind = "rate-limited"
	ProviderAccountExists     ProviderErrorKind = "email-in-use"
	ProviderWeakSecret        ProviderErrorKind = "weak-password"
	ProviderUnknown           ProviderErrorKind = "unknown"
)

// ProviderError is an identity failure categorized at the SessionManager
// boundary. Code keeps the raw provider code for logging.
type ProviderError struct {
	Kind    ProviderErrorKind
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "authentication failed (" + string(e.Kind) + ")"
}

// Is matches on Kind so callers can use errors.Is(err, ErrInvalidCredential).
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	return ok && t.Kind == e.Kind
}

var (
	ErrPopupBlocked      = &ProviderError{Kind: ProviderPopupBlocked, Message: "Pop-up was blocked. Continuing with redirect."}
	ErrInvalidCredential = &ProviderError{Kind: ProviderInvalidCredential, Message: "Invalid email or password"}
	ErrRateLimited       = &ProviderError{Kind: ProviderRateLimited, Message: "Too many attempts. Please try again later."}
	ErrAccountExists     = &ProviderError{Kind: ProviderAccountExists, Message: "An account with this email already exists"}
	ErrWeakSecret        = &ProviderError{Kind: ProviderWeakSecret, Message: "Password is too weak. Use at least 6 characters."}
	ErrProviderUnknown   = &ProviderError{Kind: ProviderUnknown, Message: "Something went wrong. Please try again."}
)

// VerificationErrorKind classifies phone verification failures.
type VerificationErrorKind string

const (
	VerificationNoPending   VerificationErrorKind = "no-pending-verification"
	VerificationInvalidCode VerificationErrorKind = "invalid-code"
	VerificationCodeExpired VerificationErrorKind = "code-expired"
)

// VerificationError is returned by the phone verification protocol.
type VerificationError struct {
	Kind    VerificationErrorKind
	Message string
}

func (e *VerificationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "verification failed (" + string(e.Kind) + ")"
}

func (e *VerificationError) Is(target error) bool {
	t, ok := target.(*VerificationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNoPendingVerification = &VerificationError{Kind: VerificationNoPending, Message: "No verification in progress. Please request a new code."}
	ErrInvalidCode           = &VerificationError{Kind: VerificationInvalidCode, Message: "Invalid code. Please check and try again."}
	ErrCodeExpired           = &VerificationError{Kind: VerificationCodeExpired, Message: "Code expired. Please request a new one."}
)

// ErrNotFound is returned when mutating a record that does not exist.
var ErrNotFound = errors.New("record not found")

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("no active session")

// ErrValidation is the sentinel every ValidationError matches.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shorthand for &ValidationError{...}.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFound wraps ErrNotFound with the record kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// UserMessage returns text that is safe to show inline in the UI.
func UserMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	if errors.Is(err, ErrNotFound) {
		return "Not found"
	}
	if errors.Is(err, ErrNoSession) {
		return "Please sign in to continue"
	}
	return ErrProviderUnknown.Message
}
