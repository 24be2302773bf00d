package ports

import (
	"context"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

// ProfileStore persists user profiles keyed by user id.
type ProfileStore interface {
	// Get returns nil, nil when no profile exists.
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	// CreateIfAbsent stores profile unless a document with its id exists.
	CreateIfAbsent(ctx context.Context, profile *domain.UserProfile) (created bool, err error)
	Merge(ctx context.Context, userID string, patch domain.ProfilePatch) error
}
