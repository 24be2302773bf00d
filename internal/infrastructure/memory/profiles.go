package memory

import (
	"context"
	"sync"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

// Profiles is a process-local ports.ProfileStore used when no database is
// configured.
type Profiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.UserProfile
}

var _ ports.ProfileStore = (*Profiles)(nil)

func NewProfiles() *Profiles {
	return &Profiles{profiles: make(map[string]*domain.UserProfile)}
}

func (p *Profiles) Get(_ context.Context, userID string) (*domain.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profiles[userID].Clone(), nil
}

func (p *Profiles) CreateIfAbsent(_ context.Context, profile *domain.UserProfile) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.profiles[profile.ID]; ok {
		return false, nil
	}
	p.profiles[profile.ID] = profile.Clone()
	return true, nil
}

// Merge applies patch, creating a bare profile when none exists.
func (p *Profiles) Merge(_ context.Context, userID string, patch domain.ProfilePatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.profiles[userID]
	if !ok {
		cur = &domain.UserProfile{ID: userID}
		p.profiles[userID] = cur
	}
	patch.Apply(cur)
	return nil
}
