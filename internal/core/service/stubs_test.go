package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

// stubIdentity is an in-memory IdentityProvider whose outcomes are set per test.
type stubIdentity struct {
	mu sync.Mutex

	popupIdent     *domain.Identity
	popupErr       error
	redirectErr    error
	redirectCalls  int
	redirectResult *domain.Identity
	redirectReads  int
	recoverErr     error

	emailIdent *domain.Identity
	emailErr   error
	resetErr   error
	resetCalls int

	challenges  int
	cleared     []string
	sendErr     error
	sent        []string
	code        string
	phoneIdent  *domain.Identity
	confirmErrs []error
	confirms    map[string]int
	// duringConfirm runs inside Confirm before the outcome is decided.
	duringConfirm func()

	signOutCalls int
	current      *domain.Identity
	listeners    []func(*domain.Identity)
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{code: "123456", confirms: make(map[string]int)}
}

func (s *stubIdentity) SignInPopup(_ context.Context, _ domain.AuthProvider) (*domain.Identity, error) {
	if s.popupErr != nil {
		return nil, s.popupErr
	}
	return s.popupIdent, nil
}

func (s *stubIdentity) SignInRedirect(_ context.Context, _ domain.AuthProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirectCalls++
	return s.redirectErr
}

func (s *stubIdentity) GetRedirectResult(_ context.Context) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirectReads++
	if s.recoverErr != nil {
		return nil, s.recoverErr
	}
	return s.redirectResult, nil
}

func (s *stubIdentity) SignInEmailPassword(_ context.Context, _, _ string) (*domain.Identity, error) {
	return s.emailIdent, s.emailErr
}

func (s *stubIdentity) CreateEmailPassword(_ context.Context, _, _ string) (*domain.Identity, error) {
	return s.emailIdent, s.emailErr
}

func (s *stubIdentity) SendPasswordReset(_ context.Context, _ string) error {
	s.resetCalls++
	return s.resetErr
}

type stubChallenge struct {
	id    string
	owner *stubIdentity
}

func (c *stubChallenge) ID() string { return c.id }
func (c *stubChallenge) Clear() {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	c.owner.cleared = append(c.owner.cleared, c.id)
}

func (s *stubIdentity) CreatePhoneChallenge(anchorID string) (ports.PhoneChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges++
	return &stubChallenge{id: fmt.Sprintf("%s-%d", anchorID, s.challenges), owner: s}, nil
}

type stubConfirmation struct {
	key   string
	owner *stubIdentity
}

func (c *stubConfirmation) Confirm(_ context.Context, code string) (*domain.Identity, error) {
	s := c.owner
	if hook := s.duringConfirm; hook != nil {
		s.duringConfirm = nil
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirms[c.key]++
	if len(s.confirmErrs) > 0 {
		err := s.confirmErrs[0]
		s.confirmErrs = s.confirmErrs[1:]
		return nil, err
	}
	if code != s.code {
		return nil, &ports.IdentityError{Code: "auth/invalid-verification-code"}
	}
	return s.phoneIdent, nil
}

func (s *stubIdentity) SendPhoneCode(_ context.Context, e164 string, ch ports.PhoneChallenge) (ports.PhoneConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sent = append(s.sent, e164)
	return &stubConfirmation{key: ch.ID(), owner: s}, nil
}

func (s *stubIdentity) SignOut(_ context.Context) error {
	s.signOutCalls++
	s.emit(nil)
	return nil
}

func (s *stubIdentity) Subscribe(fn func(*domain.Identity)) func() {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	cur := s.current
	s.mu.Unlock()
	fn(cur)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = nil
	}
}

func (s *stubIdentity) emit(id *domain.Identity) {
	s.mu.Lock()
	s.current = id
	listeners := append([]func(*domain.Identity){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(id)
	}
}

// stubProfiles is an in-memory ProfileStore counting every call.
type stubProfiles struct {
	mu        sync.Mutex
	profiles  map[string]*domain.UserProfile
	creates   int
	merges    int
	gets      int
	getErr    error
	createErr error
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{profiles: make(map[string]*domain.UserProfile)}
}

func (s *stubProfiles) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates + s.merges + s.gets
}

func (s *stubProfiles) Get(_ context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.profiles[userID].Clone(), nil
}

func (s *stubProfiles) CreateIfAbsent(_ context.Context, p *domain.UserProfile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return false, s.createErr
	}
	if _, ok := s.profiles[p.ID]; ok {
		return false, nil
	}
	s.profiles[p.ID] = p.Clone()
	return true, nil
}

func (s *stubProfiles) Merge(_ context.Context, userID string, patch domain.ProfilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merges++
	p, ok := s.profiles[userID]
	if !ok {
		p = &domain.UserProfile{ID: userID}
		s.profiles[userID] = p
	}
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Settings != nil {
		p.Settings = *patch.Settings
	}
	if patch.HasCompletedOnboarding != nil {
		p.HasCompletedOnboarding = *patch.HasCompletedOnboarding
	}
	if patch.Onboarding != nil {
		rec := *patch.Onboarding
		p.Onboarding = &rec
	}
	return nil
}

// memLocal is an in-memory LocalPersistence.
type memLocal struct {
	mu       sync.Mutex
	session  *domain.SessionSnapshot
	data     *domain.Collections
	saves    int
	failData bool
}

var errDiskFull = errors.New("disk full")

func (m *memLocal) LoadSession() (domain.SessionSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return domain.SessionSnapshot{}, false, nil
	}
	return *m.session, true, nil
}

func (m *memLocal) SaveSession(s domain.SessionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.User = s.User.Clone()
	m.session = &s
	return nil
}

func (m *memLocal) LoadData() (domain.Collections, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return domain.Collections{}, false, nil
	}
	return m.data.Clone(), true, nil
}

func (m *memLocal) SaveData(c domain.Collections) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failData {
		return errDiskFull
	}
	m.saves++
	cp := c.Clone()
	m.data = &cp
	return nil
}

// spyRemote records every RemoteStore call.
type spyRemote struct {
	mu    sync.Mutex
	calls []string
}

func (s *spyRemote) record(op, coll, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op+":"+coll+":"+id)
}

func (s *spyRemote) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *spyRemote) Create(_ context.Context, coll string, _ any, id string) (string, error) {
	s.record("create", coll, id)
	return id, nil
}

func (s *spyRemote) GetOne(_ context.Context, coll, id string) (ports.Document, error) {
	s.record("get", coll, id)
	return ports.Document{"id": id}, nil
}

func (s *spyRemote) GetByUser(_ context.Context, coll, userID string) ([]ports.Document, error) {
	s.record("list", coll, userID)
	return []ports.Document{{"userId": userID}}, nil
}

func (s *spyRemote) Update(_ context.Context, coll, id string, _ map[string]any) error {
	s.record("update", coll, id)
	return nil
}

func (s *spyRemote) Delete(_ context.Context, coll, id string) error {
	s.record("delete", coll, id)
	return nil
}

// seqIDs hands out "id-1", "id-2", ...
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}
