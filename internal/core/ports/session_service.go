package ports

import (
	"context"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

// SignInResult is returned by provider sign-in. Pending is true when the
// flow fell back to a redirect and the user arrives later through redirect
// recovery.
type SignInResult struct {
	Session domain.Session
	Pending bool
}

// RedirectRecovery is the outcome of the one-shot redirect check.
type RedirectRecovery struct {
	User           *domain.UserProfile
	AlreadyChecked bool
}

// OnboardingInput is the wizard payload for save and skip.
type OnboardingInput struct {
	MindfulnessLevel int                   `json:"mindfulnessLevel" validate:"gte=0,lte=100"`
	EvolutionPath    *domain.EvolutionPath `json:"evolutionPath"`
	DisplayName      string                `json:"displayName"`
}

// SessionService is the SessionManager surface used by the transport layer.
type SessionService interface {
	Current() domain.Session
	SignInWithProvider(ctx context.Context, provider domain.AuthProvider) (SignInResult, error)
	SignInWithEmail(ctx context.Context, email, password string) (domain.Session, error)
	SignUpWithEmail(ctx context.Context, email, password string) (domain.Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	NewPhoneChallenge(anchorID string) (string, error)
	BeginPhoneVerification(ctx context.Context, e164, challengeID string) (domain.VerificationHandle, error)
	ConfirmPhoneCode(ctx context.Context, handleID, code string) (domain.Session, error)
	ResendPhoneCode(ctx context.Context, e164, anchorID string) (domain.VerificationHandle, error)
	RecoverRedirectResult(ctx context.Context) RedirectRecovery
	SignOut(ctx context.Context) error
	EnterDemoMode(ctx context.Context) (domain.Session, error)
	UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Session, error)
	CompleteOnboarding(ctx context.Context, in OnboardingInput) (domain.Session, error)
	SkipOnboarding(ctx context.Context, in OnboardingInput) (domain.Session, error)
}

// GateService answers routing questions for the current session.
type GateService interface {
	State() domain.GateState
	Decide(path string) domain.RouteDecision
}
