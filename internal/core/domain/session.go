package domain

import (
	"strings"
	"time"
)

// Well-known identity of the local-only demo user.
const (
	DemoUserID      = "demo-user"
	DemoUserEmail   = "demo@midnight.app"
	DemoDisplayName = "Demo User"
)

// NewDemoProfile synthesizes the local demo user with default settings.
func NewDemoProfile(now time.Time) *UserProfile {
	return &UserProfile{
		ID:          DemoUserID,
		Email:       DemoUserEmail,
		DisplayName: DemoDisplayName,
		CreatedAt:   now,
		Settings:    DefaultSettings(),
	}
}

// Session is the live authentication state of an app instance.
type Session struct {
	User      *UserProfile `json:"user"`
	IsDemo    bool         `json:"isDemo"`
	IsLoading bool         `json:"isLoading"`
}

// CurrentUserID returns the signed-in user id or "".
func (s Session) CurrentUserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// IsAuthenticated reports whether a user (real or demo) is present.
func (s Session) IsAuthenticated() bool {
	return s.User != nil
}

// Clone deep-copies the session so subscribers cannot alias live state.
func (s Session) Clone() Session {
	s.User = s.User.Clone()
	return s
}

// SessionSnapshot is the persisted form of the session document.
type SessionSnapshot struct {
	User   *UserProfile `json:"user"`
	IsDemo bool         `json:"isDemo"`
}

// VerificationHandle identifies one phone verification attempt. A resend
// issues a new handle and invalidates every earlier one.
type VerificationHandle struct {
	ID          string `json:"verificationId"`
	PhoneNumber string `json:"phoneNumber"`
}

// NormalizeUSPhone turns user input such as "(555) 123-4567" into E.164.
// Exactly ten digits are required, matching the sign-in form.
func NormalizeUSPhone(input string) (string, error) {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(strings.TrimSpace(input), "+1") && len(digits) == 11 {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", NewValidationError("phone", "Please enter a valid 10-digit phone number")
	}
	return "+1" + digits, nil
}
