package local

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

func TestStore_EmptyDirectory(t *testing.T) {
	s := Open(t.TempDir())

	_, ok, err := s.LoadSession()
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.LoadData()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := Open(dir)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.SaveSession(domain.SessionSnapshot{User: domain.NewDemoProfile(now), IsDemo: true}))

	// A fresh Store reads what the first one wrote.
	snap, ok, err := Open(dir).LoadSession()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, snap.IsDemo)
	require.NotNil(t, snap.User)
	assert.Equal(t, domain.DemoUserID, snap.User.ID)
	assert.True(t, snap.User.CreatedAt.Equal(now))

	_, err = os.Stat(filepath.Join(dir, ports.SessionDocument))
	assert.NoError(t, err)
}

func TestStore_DataRoundTripAndErase(t *testing.T) {
	dir := t.TempDir()
	s := Open(dir)
	data := domain.Collections{
		Goals:  []domain.Goal{{ID: "g1", Title: "Ship it", Progress: 40}},
		Habits: []domain.Habit{{ID: "h1", Title: "Walk", CompletedDates: []string{"2025-01-01"}, Streak: 1}},
	}
	require.NoError(t, s.SaveData(data))

	got, ok, err := Open(dir).LoadData()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ship it", got.Goals[0].Title)
	assert.Equal(t, []string{"2025-01-01"}, got.Habits[0].CompletedDates)

	require.NoError(t, s.Erase())
	_, ok, err = Open(dir).LoadData()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ports.DataDocument), []byte("{not json"), 0o600))

	_, _, err := Open(dir).LoadData()
	assert.Error(t, err)
}
