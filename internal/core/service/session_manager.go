package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
	"github.com/midnightlabs/midnight/internal/pkg/id"
	"github.com/midnightlabs/midnight/internal/pkg/metrics"
	"github.com/midnightlabs/midnight/internal/pkg/observable"
)

// DefaultPhoneAnchor is the anchor used when the caller does not name one.
const DefaultPhoneAnchor = "recaptcha-container"

// SessionOptions tunes a SessionManager. Zero values pick defaults.
type SessionOptions struct {
	// MobileRuntime makes any popup failure fall back to a redirect.
	MobileRuntime bool
	Clock         clock.Clock
	IDs           id.Generator
}

type pendingVerification struct {
	handleID     string
	phone        string
	confirmation ports.PhoneConfirmation
}

// SessionManager owns the one live session of the app instance. It
// reconciles popup, redirect, email, phone and demo sign-ins into a single
// session stream.
type SessionManager struct {
	idp      ports.IdentityProvider
	profiles ports.ProfileStore
	local    ports.LocalPersistence
	demo     *DemoFlag
	clock    clock.Clock
	ids      id.Generator
	mobile   bool
	log      zerolog.Logger

	establishing singleflight.Group
	stream       *observable.Value[domain.Session]
	recoveryDone chan struct{}

	mu      sync.Mutex
	session domain.Session
	// hasAttemptedRedirectRecovery makes RecoverRedirectResult one-shot.
	hasAttemptedRedirectRecovery bool
	recoverySettled              bool
	recovery                     ports.RedirectRecovery
	unsubscribe                  func()
	challenge                    ports.PhoneChallenge
	pending                      *pendingVerification
	retired                      map[string]struct{}
}

// NewSessionManager wires a manager. profiles should already be wrapped in
// a ProfileGuard sharing demo.
func NewSessionManager(
	idp ports.IdentityProvider,
	profiles ports.ProfileStore,
	local ports.LocalPersistence,
	demo *DemoFlag,
	opts SessionOptions,
	log zerolog.Logger,
) *SessionManager {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.IDs == nil {
		opts.IDs = id.UUID{}
	}
	return &SessionManager{
		idp:          idp,
		profiles:     profiles,
		local:        local,
		demo:         demo,
		clock:        opts.Clock,
		ids:          opts.IDs,
		mobile:       opts.MobileRuntime,
		log:          log,
		stream:       observable.New[domain.Session](),
		recoveryDone: make(chan struct{}),
		session:      domain.Session{IsLoading: true},
		retired:      make(map[string]struct{}),
	}
}

// Init restores the persisted session, runs redirect recovery to completion
// and only then subscribes to the identity stream. Nothing is published to
// subscribers before recovery settles.
func (m *SessionManager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	m.restore()
	m.RecoverRedirectResult(ctx)

	unsubscribe := m.idp.Subscribe(m.onIdentity)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribe = unsubscribe
	m.session.IsLoading = false
	m.publishLocked()
	return nil
}

// Close detaches from the identity stream and ends every subscription.
func (m *SessionManager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	m.stream.Close()
}

func (m *SessionManager) restore() {
	snap, ok, err := m.local.LoadSession()
	if err != nil {
		m.log.Warn().Err(err).Msg("session restore failed, starting signed out")
		return
	}
	if !ok || snap.User == nil {
		return
	}
	m.demo.Set(snap.IsDemo)
	m.mu.Lock()
	m.session.User = snap.User.Clone()
	m.session.IsDemo = snap.IsDemo
	m.mu.Unlock()
	m.log.Debug().Str("user_id", snap.User.ID).Bool("demo", snap.IsDemo).Msg("session restored")
}

// Current returns a copy of the live session.
func (m *SessionManager) Current() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

// CurrentUserID returns the owner id stamped on new records.
func (m *SessionManager) CurrentUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.CurrentUserID()
}

// Subscribe returns the session stream. The first value arrives once Init
// has settled redirect recovery.
func (m *SessionManager) Subscribe() (<-chan domain.Session, func()) {
	return m.stream.Subscribe()
}

// OnSessionChange calls fn for every published session until the returned
// func is called.
func (m *SessionManager) OnSessionChange(fn func(domain.Session)) func() {
	ch, cancel := m.stream.Subscribe()
	go func() {
		for s := range ch {
			fn(s)
		}
	}()
	return cancel
}

// publishLocked persists and broadcasts the session. Caller holds m.mu.
func (m *SessionManager) publishLocked() {
	snap := domain.SessionSnapshot{User: m.session.User, IsDemo: m.session.IsDemo}
	if err := m.local.SaveSession(snap); err != nil {
		m.log.Error().Err(err).Msg("persist session failed")
	}
	if m.recoverySettled {
		m.stream.Publish(m.session.Clone())
	}
}

func (m *SessionManager) adopt(profile *domain.UserProfile, demo bool) domain.Session {
	m.demo.Set(demo)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = domain.Session{User: profile.Clone(), IsDemo: demo}
	m.publishLocked()
	return m.session.Clone()
}

// establish ensures the profile document exists and returns it. Concurrent
// calls for one user share a single round trip. The demo flag stays as it
// is until adopt replaces the session.
func (m *SessionManager) establish(ctx context.Context, ident *domain.Identity) (*domain.UserProfile, error) {
	ctx = withEstablishing(ctx, ident.UID)
	v, err, _ := m.establishing.Do(ident.UID, func() (any, error) {
		fresh := domain.NewProfileFromIdentity(ident, m.clock.Now())
		created, err := m.profiles.CreateIfAbsent(ctx, fresh)
		if err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		if created {
			m.log.Info().Str("user_id", ident.UID).Msg("profile created")
			return fresh, nil
		}
		stored, err := m.profiles.Get(ctx, ident.UID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		if stored == nil {
			return fresh, nil
		}
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.UserProfile).Clone(), nil
}

func (m *SessionManager) onIdentity(ident *domain.Identity) {
	if ident == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.session.IsLoading = false
		if !m.demo.Enabled() && !m.session.IsDemo {
			m.session.User = nil
		}
		m.publishLocked()
		return
	}

	if cur := m.Current(); cur.User != nil && cur.User.ID == ident.UID && !cur.IsDemo {
		m.mu.Lock()
		m.session.IsLoading = false
		m.publishLocked()
		m.mu.Unlock()
		return
	}

	profile, err := m.establish(context.Background(), ident)
	if err != nil {
		m.log.Error().Err(err).Str("user_id", ident.UID).Msg("profile setup failed, using defaults")
		profile = domain.NewProfileFromIdentity(ident, m.clock.Now())
	}
	m.adopt(profile, false)
}

// RecoverRedirectResult checks once per process for a completed redirect
// sign-in. Later calls wait for the first and return its outcome flagged
// AlreadyChecked. Failures count as "nothing recovered".
func (m *SessionManager) RecoverRedirectResult(ctx context.Context) ports.RedirectRecovery {
	m.mu.Lock()
	if m.hasAttemptedRedirectRecovery {
		m.mu.Unlock()
		select {
		case <-m.recoveryDone:
		case <-ctx.Done():
			return ports.RedirectRecovery{AlreadyChecked: true}
		}
		m.mu.Lock()
		r := m.recovery
		m.mu.Unlock()
		r.User = r.User.Clone()
		r.AlreadyChecked = true
		return r
	}
	m.hasAttemptedRedirectRecovery = true
	m.mu.Unlock()

	var result ports.RedirectRecovery
	ident, err := m.idp.GetRedirectResult(ctx)
	switch {
	case err != nil:
		metrics.RedirectRecoveriesTotal.WithLabelValues("error").Inc()
		m.log.Warn().Err(err).Msg("redirect recovery failed")
	case ident == nil:
		metrics.RedirectRecoveriesTotal.WithLabelValues("none").Inc()
	default:
		profile, err := m.establish(ctx, ident)
		if err != nil {
			metrics.RedirectRecoveriesTotal.WithLabelValues("error").Inc()
			m.log.Warn().Err(err).Str("user_id", ident.UID).Msg("redirect recovery: profile setup failed")
			break
		}
		metrics.RedirectRecoveriesTotal.WithLabelValues("recovered").Inc()
		m.adopt(profile, false)
		result.User = profile
	}

	m.mu.Lock()
	m.recovery = result
	m.recoverySettled = true
	m.mu.Unlock()
	close(m.recoveryDone)

	result.User = result.User.Clone()
	return result
}

// SignInWithProvider tries a popup first. A blocked popup, or any popup
// failure on a mobile runtime, falls back to a redirect and reports Pending.
func (m *SessionManager) SignInWithProvider(ctx context.Context, provider domain.AuthProvider) (ports.SignInResult, error) {
	if !provider.Valid() {
		return ports.SignInResult{}, domain.NewValidationError("provider", "unsupported provider")
	}

	ident, err := m.idp.SignInPopup(ctx, provider)
	if err == nil {
		s, err := m.signedIn(ctx, ident, "popup")
		return ports.SignInResult{Session: s}, err
	}

	mapped := mapProviderError(err)
	if !errors.Is(mapped, domain.ErrPopupBlocked) && !m.mobile {
		metrics.SignInsTotal.WithLabelValues("popup", "error").Inc()
		m.log.Warn().Err(err).Str("provider", string(provider)).Msg("popup sign-in failed")
		return ports.SignInResult{}, mapped
	}

	m.log.Info().Str("provider", string(provider)).Bool("mobile", m.mobile).Msg("falling back to redirect sign-in")
	if err := m.idp.SignInRedirect(ctx, provider); err != nil {
		metrics.SignInsTotal.WithLabelValues("redirect", "error").Inc()
		return ports.SignInResult{}, mapProviderError(err)
	}
	metrics.SignInsTotal.WithLabelValues("redirect", "pending").Inc()
	return ports.SignInResult{Session: m.Current(), Pending: true}, nil
}

func (m *SessionManager) signedIn(ctx context.Context, ident *domain.Identity, method string) (domain.Session, error) {
	profile, err := m.establish(ctx, ident)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues(method, "error").Inc()
		m.log.Error().Err(err).Str("user_id", ident.UID).Msg("profile setup failed")
		return domain.Session{}, err
	}
	metrics.SignInsTotal.WithLabelValues(method, "ok").Inc()
	m.log.Info().Str("user_id", ident.UID).Str("method", method).Msg("signed in")
	return m.adopt(profile, false), nil
}

func validateCredentials(email, password string) error {
	if err := checkVar("email", strings.TrimSpace(email), "required,email", "Please enter a valid email address"); err != nil {
		return err
	}
	if password == "" {
		return domain.NewValidationError("password", "Please enter your password")
	}
	return nil
}

func (m *SessionManager) SignInWithEmail(ctx context.Context, email, password string) (domain.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return domain.Session{}, err
	}
	ident, err := m.idp.SignInEmailPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("email", "error").Inc()
		return domain.Session{}, mapProviderError(err)
	}
	return m.signedIn(ctx, ident, "email")
}

func (m *SessionManager) SignUpWithEmail(ctx context.Context, email, password string) (domain.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return domain.Session{}, err
	}
	ident, err := m.idp.CreateEmailPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("signup", "error").Inc()
		return domain.Session{}, mapProviderError(err)
	}
	return m.signedIn(ctx, ident, "signup")
}

// RequestPasswordReset never reveals whether the account exists. Only a
// malformed address is reported.
func (m *SessionManager) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := checkVar("email", email, "required,email", "Please enter a valid email address"); err != nil {
		return err
	}
	if err := m.idp.SendPasswordReset(ctx, email); err != nil {
		m.log.Warn().Err(err).Msg("password reset request failed")
	}
	return nil
}

// NewPhoneChallenge creates the anti-abuse challenge for phone sign-in and
// invalidates the previous one.
func (m *SessionManager) NewPhoneChallenge(anchorID string) (string, error) {
	if anchorID == "" {
		anchorID = DefaultPhoneAnchor
	}
	ch, err := m.idp.CreatePhoneChallenge(anchorID)
	if err != nil {
		return "", mapProviderError(err)
	}
	m.mu.Lock()
	old := m.challenge
	m.challenge = ch
	m.mu.Unlock()
	if old != nil {
		old.Clear()
	}
	return ch.ID(), nil
}

// BeginPhoneVerification sends a code to e164 using the active challenge.
// A newer verification supersedes any pending one.
func (m *SessionManager) BeginPhoneVerification(ctx context.Context, e164, challengeID string) (domain.VerificationHandle, error) {
	if err := checkVar("phone", e164, "required,e164", "Please enter a valid 10-digit phone number"); err != nil {
		return domain.VerificationHandle{}, err
	}
	m.mu.Lock()
	ch := m.challenge
	m.mu.Unlock()
	if ch == nil || ch.ID() != challengeID {
		return domain.VerificationHandle{}, domain.NewValidationError("challenge", "Verification check expired. Please try again.")
	}

	conf, err := m.idp.SendPhoneCode(ctx, e164, ch)
	if err != nil {
		m.log.Warn().Err(err).Msg("send phone code failed")
		return domain.VerificationHandle{}, mapProviderError(err)
	}

	handle := domain.VerificationHandle{ID: m.ids.New(), PhoneNumber: e164}
	m.mu.Lock()
	if m.pending != nil {
		m.retired[m.pending.handleID] = struct{}{}
	}
	m.pending = &pendingVerification{handleID: handle.ID, phone: e164, confirmation: conf}
	m.mu.Unlock()
	return handle, nil
}

// ConfirmPhoneCode completes phone sign-in. A handle superseded by a resend
// fails with ErrCodeExpired without reaching the provider.
func (m *SessionManager) ConfirmPhoneCode(ctx context.Context, handleID, code string) (domain.Session, error) {
	m.mu.Lock()
	p := m.pending
	if p == nil || p.handleID != handleID {
		_, stale := m.retired[handleID]
		m.mu.Unlock()
		if stale {
			return domain.Session{}, domain.ErrCodeExpired
		}
		return domain.Session{}, domain.ErrNoPendingVerification
	}
	m.mu.Unlock()

	if err := checkVar("code", code, "required,len=6,numeric", "Please enter the 6-digit code"); err != nil {
		return domain.Session{}, err
	}

	ident, err := p.confirmation.Confirm(ctx, code)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("phone", "error").Inc()
		return domain.Session{}, mapVerificationError(err)
	}

	m.mu.Lock()
	if m.pending != p {
		// Retired by a resend or sign-out while the provider call was in flight.
		m.mu.Unlock()
		metrics.SignInsTotal.WithLabelValues("phone", "error").Inc()
		return domain.Session{}, domain.ErrCodeExpired
	}
	m.pending = nil
	m.retired[p.handleID] = struct{}{}
	ch := m.challenge
	m.challenge = nil
	m.mu.Unlock()
	if ch != nil {
		ch.Clear()
	}
	return m.signedIn(ctx, ident, "phone")
}

// ResendPhoneCode retires the pending confirmation and its challenge, then
// restarts verification for the same number. The resend cooldown is the
// caller's concern.
func (m *SessionManager) ResendPhoneCode(ctx context.Context, e164, anchorID string) (domain.VerificationHandle, error) {
	m.mu.Lock()
	p := m.pending
	if p == nil || p.phone != e164 {
		m.mu.Unlock()
		return domain.VerificationHandle{}, domain.ErrNoPendingVerification
	}
	m.retired[p.handleID] = struct{}{}
	m.pending = nil
	old := m.challenge
	m.challenge = nil
	m.mu.Unlock()
	if old != nil {
		old.Clear()
	}

	challengeID, err := m.NewPhoneChallenge(anchorID)
	if err != nil {
		return domain.VerificationHandle{}, err
	}
	return m.BeginPhoneVerification(ctx, e164, challengeID)
}

// SignOut clears phone state and the demo flag, then ends the identity
// session.
func (m *SessionManager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	ch := m.challenge
	m.challenge = nil
	m.pending = nil
	m.retired = make(map[string]struct{})
	uid := m.session.CurrentUserID()
	m.demo.Set(false)
	m.session = domain.Session{}
	m.publishLocked()
	m.mu.Unlock()

	if ch != nil {
		ch.Clear()
	}
	if err := m.idp.SignOut(ctx); err != nil {
		m.log.Error().Err(err).Msg("identity sign-out failed")
		return mapProviderError(err)
	}
	m.log.Info().Str("user_id", uid).Msg("signed out")
	return nil
}

// EnterDemoMode starts a local-only session. Remote writes stay suppressed
// until SignOut.
func (m *SessionManager) EnterDemoMode(ctx context.Context) (domain.Session, error) {
	s := m.adopt(domain.NewDemoProfile(m.clock.Now()), true)
	metrics.SignInsTotal.WithLabelValues("demo", "ok").Inc()
	m.log.Info().Msg("demo mode entered")
	return s, nil
}

// UpdateSettings merges patch into the user's settings.
func (m *SessionManager) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Session, error) {
	if patch.Theme != nil {
		if err := checkVar("theme", string(*patch.Theme), "oneof=light dark system", "must be light, dark or system"); err != nil {
			return domain.Session{}, err
		}
	}
	if patch.ReminderTime != nil {
		if err := checkVar("reminderTime", *patch.ReminderTime, "datetime=15:04", "must be HH:mm"); err != nil {
			return domain.Session{}, err
		}
	}

	m.mu.Lock()
	if m.session.User == nil {
		m.mu.Unlock()
		return domain.Session{}, domain.ErrNoSession
	}
	user := m.session.User.Clone()
	m.mu.Unlock()

	user.Settings = patch.Apply(user.Settings)
	if err := m.profiles.Merge(ctx, user.ID, domain.ProfilePatch{Settings: &user.Settings}); err != nil {
		return domain.Session{}, fmt.Errorf("save settings: %w", err)
	}
	return m.replaceUser(user), nil
}

// CompleteOnboarding saves the wizard answers and marks onboarding done.
func (m *SessionManager) CompleteOnboarding(ctx context.Context, in ports.OnboardingInput) (domain.Session, error) {
	return m.finishOnboarding(ctx, in, "complete")
}

// SkipOnboarding saves whatever was entered and still marks onboarding done.
// An untouched mindfulness level keeps the wizard's starting value.
func (m *SessionManager) SkipOnboarding(ctx context.Context, in ports.OnboardingInput) (domain.Session, error) {
	if in.MindfulnessLevel == 0 {
		in.MindfulnessLevel = 50
	}
	return m.finishOnboarding(ctx, in, "skip")
}

func (m *SessionManager) finishOnboarding(ctx context.Context, in ports.OnboardingInput, how string) (domain.Session, error) {
	if err := checkStruct(in); err != nil {
		return domain.Session{}, err
	}
	if in.EvolutionPath != nil && !in.EvolutionPath.Valid() {
		return domain.Session{}, domain.NewValidationError("evolutionPath", "must be architect, athlete, sage or creator")
	}

	m.mu.Lock()
	if m.session.User == nil {
		m.mu.Unlock()
		return domain.Session{}, domain.ErrNoSession
	}
	user := m.session.User.Clone()
	m.mu.Unlock()

	user.CompleteOnboarding(domain.OnboardingRecord{
		MindfulnessLevel: in.MindfulnessLevel,
		EvolutionPath:    in.EvolutionPath,
		DisplayName:      strings.TrimSpace(in.DisplayName),
	}, m.clock.Now())

	done := true
	patch := domain.ProfilePatch{
		DisplayName:            &user.DisplayName,
		HasCompletedOnboarding: &done,
		Onboarding:             user.Onboarding,
	}
	if err := m.profiles.Merge(ctx, user.ID, patch); err != nil {
		return domain.Session{}, fmt.Errorf("save onboarding: %w", err)
	}
	m.log.Info().Str("user_id", user.ID).Str("via", how).Msg("onboarding finished")
	return m.replaceUser(user), nil
}

// replaceUser swaps in an edited copy of the current user unless the
// session changed hands meanwhile.
func (m *SessionManager) replaceUser(user *domain.UserProfile) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.User != nil && m.session.User.ID == user.ID {
		m.session.User = user
		m.publishLocked()
	}
	return m.session.Clone()
}
