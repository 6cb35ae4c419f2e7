package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aequanimitas-app/backend/internal/session"
)

func newTestRegistry(remote *fakeRemote) *Registry {
	return NewRegistry(remote, newFakeCache(), session.FixedClock{At: statsToday})
}

func TestRegistrySharesOneEnginePerUser(t *testing.T) {
	remote := newFakeRemote()
	registry := newTestRegistry(remote)

	first, releaseFirst, err := registry.Acquire("u1")
	require.NoError(t, err)
	second, releaseSecond, err := registry.Acquire("u1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, remote.activePrefWatchCount("u1"))

	// The engine survives until the last holder releases it.
	releaseFirst()
	assert.NotNil(t, registry.Lookup("u1"))
	assert.Equal(t, 1, remote.activePrefWatchCount("u1"))

	releaseSecond()
	assert.Nil(t, registry.Lookup("u1"))
	assert.Equal(t, 0, remote.activePrefWatchCount("u1"))
}

func TestRegistryReleaseIsIdempotent(t *testing.T) {
	remote := newFakeRemote()
	registry := newTestRegistry(remote)

	_, releaseFirst, err := registry.Acquire("u1")
	require.NoError(t, err)
	_, releaseSecond, err := registry.Acquire("u1")
	require.NoError(t, err)

	releaseFirst()
	releaseFirst()
	assert.NotNil(t, registry.Lookup("u1"))

	releaseSecond()
	assert.Nil(t, registry.Lookup("u1"))
}

func TestRegistryIsolatesUsers(t *testing.T) {
	remote := newFakeRemote()
	registry := newTestRegistry(remote)

	first, releaseFirst, err := registry.Acquire("u1")
	require.NoError(t, err)
	defer releaseFirst()
	second, releaseSecond, err := registry.Acquire("u2")
	require.NoError(t, err)
	defer releaseSecond()

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, remote.activePrefWatchCount("u1"))
	assert.Equal(t, 1, remote.activePrefWatchCount("u2"))
}

func TestRegistryLookupWithoutEngine(t *testing.T) {
	registry := newTestRegistry(newFakeRemote())
	assert.Nil(t, registry.Lookup("nobody"))
}
