package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

const collectionUsers = "users"

// ProfileRepository stores one profile document per user, keyed by user id.
type ProfileRepository struct {
	col *mongo.Collection
}

var _ ports.ProfileStore = (*ProfileRepository)(nil)

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionUsers)}
}

// Get returns nil, nil when the profile does not exist.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.UserProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

// CreateIfAbsent inserts the profile only when no document exists for its
// id. Existing documents are never overwritten.
func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, p *domain.UserProfile) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$setOnInsert": p},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("create profile: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

// Merge sets the non-nil fields of patch, creating the document if needed.
func (r *ProfileRepository) Merge(ctx context.Context, userID string, patch domain.ProfilePatch) error {
	if patchEmpty(patch) {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": patch},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("merge profile: %w", err)
	}
	return nil
}

func patchEmpty(p domain.ProfilePatch) bool {
	return p.DisplayName == nil && p.PhotoURL == nil && p.Settings == nil &&
		p.HasCompletedOnboarding == nil && p.Onboarding == nil
}
