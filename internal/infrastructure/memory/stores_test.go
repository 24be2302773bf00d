package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

func TestProfiles_CreateIfAbsentKeepsFirst(t *testing.T) {
	p := NewProfiles()
	ctx := context.Background()

	created, err := p.CreateIfAbsent(ctx, &domain.UserProfile{ID: "u1", DisplayName: "First"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = p.CreateIfAbsent(ctx, &domain.UserProfile{ID: "u1", DisplayName: "Second"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := p.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.DisplayName)

	missing, err := p.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProfiles_Merge(t *testing.T) {
	p := NewProfiles()
	ctx := context.Background()
	_, _ = p.CreateIfAbsent(ctx, &domain.UserProfile{ID: "u1", DisplayName: "Ana"})

	done := true
	require.NoError(t, p.Merge(ctx, "u1", domain.ProfilePatch{HasCompletedOnboarding: &done}))
	got, _ := p.Get(ctx, "u1")
	assert.True(t, got.HasCompletedOnboarding)
	assert.Equal(t, "Ana", got.DisplayName)

	got.DisplayName = "mutated"
	again, _ := p.Get(ctx, "u1")
	assert.Equal(t, "Ana", again.DisplayName, "Get returns a copy")
}

func TestRecords_RoundTrip(t *testing.T) {
	r := NewRecords()
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	id, err := r.Create(ctx, ports.CollectionGoals, domain.Goal{ID: "g1", UserID: "u1", Title: "Run", CreatedAt: now}, "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", id)
	_, err = r.Create(ctx, ports.CollectionGoals, domain.Goal{ID: "g2", UserID: "u2", Title: "Read"}, "g2")
	require.NoError(t, err)

	doc, err := r.GetOne(ctx, ports.CollectionGoals, "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", doc["id"])
	assert.Equal(t, "Run", doc["title"])

	mine, err := r.GetByUser(ctx, ports.CollectionGoals, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, r.Update(ctx, ports.CollectionGoals, "g1", map[string]any{"title": "Run 5k"}))
	doc, _ = r.GetOne(ctx, ports.CollectionGoals, "g1")
	assert.Equal(t, "Run 5k", doc["title"])
	assert.ErrorIs(t, r.Update(ctx, ports.CollectionGoals, "nope", nil), domain.ErrNotFound)

	require.NoError(t, r.Delete(ctx, ports.CollectionGoals, "g1"))
	assert.Equal(t, 1, r.Len(ports.CollectionGoals))
	gone, err := r.GetOne(ctx, ports.CollectionGoals, "g1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRecords_GeneratesID(t *testing.T) {
	r := NewRecords()
	id, err := r.Create(context.Background(), ports.CollectionTasks, domain.Task{Title: "x"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
