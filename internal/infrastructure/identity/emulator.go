// Package identity provides an in-process identity provider with popup,
// redirect, email/password and phone sign-in. Failures are reported as
// *ports.IdentityError carrying provider-style "auth/..." codes.
package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/clock"
)

const (
	minPasswordLen  = 6
	maxFailures     = 5
	codeTTL         = 5 * time.Minute
	redirectTTL     = 10 * time.Minute
	defaultInstance = "default"
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// RedirectStash carries a redirect sign-in across the page reload.
type RedirectStash interface {
	Put(ctx context.Context, instance, uid string, ttl time.Duration) error
	Take(ctx context.Context, instance string) (uid string, ok bool, err error)
}

type Options struct {
	// Instance names this app instance in the redirect stash.
	Instance string
	Stash    RedirectStash
	Clock    clock.Clock
	// BlockPopups makes every popup attempt fail with auth/popup-blocked.
	BlockPopups bool
	// OAuth maps a provider to the account its consent screen signs in.
	OAuth map[domain.AuthProvider]domain.Identity
}

type account struct {
	identity domain.Identity
	hash     []byte
	failures int
}

type pendingCode struct {
	phone   string
	code    string
	expires time.Time
	used    bool
}

// Emulator implements ports.IdentityProvider.
type Emulator struct {
	opts Options
	log  zerolog.Logger

	mu         sync.Mutex
	users      map[string]domain.Identity
	accounts   map[string]*account
	phones     map[string]string
	challenges map[string]bool
	codes      map[string]*pendingCode
	resets     []string
	current    *domain.Identity
	listeners  map[int]func(*domain.Identity)
	nextID     int
}

var _ ports.IdentityProvider = (*Emulator)(nil)

func NewEmulator(opts Options, log zerolog.Logger) *Emulator {
	if opts.Instance == "" {
		opts.Instance = defaultInstance
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	e := &Emulator{
		opts:       opts,
		log:        log,
		users:      make(map[string]domain.Identity),
		accounts:   make(map[string]*account),
		phones:     make(map[string]string),
		challenges: make(map[string]bool),
		codes:      make(map[string]*pendingCode),
		listeners:  make(map[int]func(*domain.Identity)),
	}
	oauth := make(map[domain.AuthProvider]domain.Identity, len(opts.OAuth))
	for p, id := range opts.OAuth {
		if id.UID == "" {
			id.UID = string(p) + "-" + uuid.NewString()
		}
		id.ProviderID = string(p) + ".com"
		oauth[p] = id
		e.users[id.UID] = id
	}
	e.opts.OAuth = oauth
	return e
}

func fail(code, msg string) error {
	return &ports.IdentityError{Code: "auth/" + code, Message: msg}
}

// setCurrent switches the signed-in identity and notifies listeners outside
// the lock.
func (e *Emulator) setCurrent(id *domain.Identity) {
	e.mu.Lock()
	if id != nil {
		cp := *id
		id = &cp
	}
	e.current = id
	listeners := make([]func(*domain.Identity), 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	e.mu.Unlock()
	for _, fn := range listeners {
		fn(copyIdentity(id))
	}
}

func copyIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

func (e *Emulator) Subscribe(fn func(*domain.Identity)) func() {
	e.mu.Lock()
	key := e.nextID
	e.nextID++
	e.listeners[key] = fn
	cur := copyIdentity(e.current)
	e.mu.Unlock()

	fn(cur)
	return func() {
		e.mu.Lock()
		delete(e.listeners, key)
		e.mu.Unlock()
	}
}

func (e *Emulator) oauthIdentity(provider domain.AuthProvider) (domain.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.opts.OAuth[provider]
	if !ok {
		return domain.Identity{}, fail("operation-not-allowed", "provider "+string(provider)+" is not enabled")
	}
	return id, nil
}

func (e *Emulator) SignInPopup(_ context.Context, provider domain.AuthProvider) (*domain.Identity, error) {
	if e.opts.BlockPopups {
		return nil, fail("popup-blocked", "popup was blocked by the browser")
	}
	id, err := e.oauthIdentity(provider)
	if err != nil {
		return nil, err
	}
	e.setCurrent(&id)
	return copyIdentity(&id), nil
}

// SignInRedirect completes the provider consent and stashes the result for
// GetRedirectResult.
func (e *Emulator) SignInRedirect(ctx context.Context, provider domain.AuthProvider) error {
	id, err := e.oauthIdentity(provider)
	if err != nil {
		return err
	}
	if e.opts.Stash == nil {
		return fail("operation-not-supported-in-this-environment", "redirect sign-in is not configured")
	}
	if err := e.opts.Stash.Put(ctx, e.opts.Instance, id.UID, redirectTTL); err != nil {
		return fail("network-request-failed", err.Error())
	}
	return nil
}

func (e *Emulator) GetRedirectResult(ctx context.Context) (*domain.Identity, error) {
	if e.opts.Stash == nil {
		return nil, nil
	}
	uid, ok, err := e.opts.Stash.Take(ctx, e.opts.Instance)
	if err != nil {
		return nil, fail("network-request-failed", err.Error())
	}
	if !ok {
		return nil, nil
	}
	e.mu.Lock()
	id, known := e.users[uid]
	e.mu.Unlock()
	if !known {
		return nil, fail("user-not-found", "redirect user no longer exists")
	}
	e.setCurrent(&id)
	return copyIdentity(&id), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fail("invalid-email", "badly formatted email")
	}
	return email, nil
}

func (e *Emulator) SignInEmailPassword(_ context.Context, email, password string) (*domain.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	acct, ok := e.accounts[email]
	if !ok {
		e.mu.Unlock()
		return nil, fail("invalid-credential", "")
	}
	if acct.failures >= maxFailures {
		e.mu.Unlock()
		return nil, fail("too-many-requests", "account temporarily locked")
	}
	if bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		acct.failures++
		e.mu.Unlock()
		return nil, fail("invalid-credential", "")
	}
	acct.failures = 0
	id := acct.identity
	e.mu.Unlock()

	e.setCurrent(&id)
	return copyIdentity(&id), nil
}

func (e *Emulator) CreateEmailPassword(_ context.Context, email, password string) (*domain.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, fail("weak-password", fmt.Sprintf("password should be at least %d characters", minPasswordLen))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fail("internal-error", err.Error())
	}

	e.mu.Lock()
	if _, exists := e.accounts[email]; exists {
		e.mu.Unlock()
		return nil, fail("email-already-in-use", "")
	}
	id := domain.Identity{UID: uuid.NewString(), Email: email, ProviderID: "password"}
	e.accounts[email] = &account{identity: id, hash: hash}
	e.users[id.UID] = id
	e.mu.Unlock()

	e.setCurrent(&id)
	return copyIdentity(&id), nil
}

func (e *Emulator) SendPasswordReset(_ context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.accounts[email]; !ok {
		return fail("user-not-found", "")
	}
	e.resets = append(e.resets, email)
	e.log.Info().Str("email", email).Msg("password reset email queued")
	return nil
}

// ResetsSent lists addresses that were sent a reset link.
func (e *Emulator) ResetsSent() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.resets...)
}

type challenge struct {
	id    string
	owner *Emulator
}

func (c *challenge) ID() string { return c.id }

func (c *challenge) Clear() {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	delete(c.owner.challenges, c.id)
}

func (e *Emulator) CreatePhoneChallenge(anchorID string) (ports.PhoneChallenge, error) {
	if strings.TrimSpace(anchorID) == "" {
		return nil, fail("argument-error", "challenge anchor is required")
	}
	c := &challenge{id: anchorID + ":" + uuid.NewString(), owner: e}
	e.mu.Lock()
	e.challenges[c.id] = true
	e.mu.Unlock()
	return c, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

type confirmation struct {
	key   string
	owner *Emulator
}

func (e *Emulator) SendPhoneCode(_ context.Context, phone string, ch ports.PhoneChallenge) (ports.PhoneConfirmation, error) {
	if !e164.MatchString(phone) {
		return nil, fail("invalid-phone-number", "")
	}
	if ch == nil {
		return nil, fail("captcha-check-failed", "missing challenge")
	}
	code, err := randomCode()
	if err != nil {
		return nil, fail("internal-error", err.Error())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.challenges[ch.ID()] {
		return nil, fail("captcha-check-failed", "challenge expired")
	}
	key := uuid.NewString()
	e.codes[key] = &pendingCode{phone: phone, code: code, expires: e.opts.Clock.Now().Add(codeTTL)}
	e.log.Info().Str("phone", phone).Str("code", code).Msg("verification code sent")
	return &confirmation{key: key, owner: e}, nil
}

// LastCode returns the most recent unexpired code sent to phone.
func (e *Emulator) LastCode(phone string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var (
		best  *pendingCode
		found bool
	)
	for _, pc := range e.codes {
		if pc.phone != phone || pc.used {
			continue
		}
		if !found || pc.expires.After(best.expires) {
			best, found = pc, true
		}
	}
	if !found {
		return "", false
	}
	return best.code, true
}

func (c *confirmation) Confirm(_ context.Context, code string) (*domain.Identity, error) {
	e := c.owner
	e.mu.Lock()
	pc, ok := e.codes[c.key]
	switch {
	case !ok || pc.used:
		e.mu.Unlock()
		return nil, fail("missing-verification-id", "")
	case !e.opts.Clock.Now().Before(pc.expires):
		e.mu.Unlock()
		return nil, fail("code-expired", "")
	case pc.code != code:
		e.mu.Unlock()
		return nil, fail("invalid-verification-code", "")
	}
	pc.used = true
	uid, known := e.phones[pc.phone]
	if !known {
		uid = uuid.NewString()
		e.phones[pc.phone] = uid
		e.users[uid] = domain.Identity{UID: uid, PhoneNumber: pc.phone, ProviderID: "phone"}
	}
	id := e.users[uid]
	e.mu.Unlock()

	e.setCurrent(&id)
	return copyIdentity(&id), nil
}

func (e *Emulator) SignOut(_ context.Context) error {
	e.setCurrent(nil)
	return nil
}
