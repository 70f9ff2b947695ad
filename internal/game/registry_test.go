// internal/game/registry_test.go
package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipset/quipset/internal/models"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(testStubSource(20), testLogger())
}

func TestCreateSessionCodes(t *testing.T) {
	r := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, creator := r.CreateSession("host", "", models.DefaultSettings())
		t.Cleanup(s.Close)

		require.Len(t, s.Code(), roomCodeLength)
		for _, ch := range s.Code() {
			assert.Contains(t, roomCodeAlphabet, string(ch))
		}
		assert.False(t, seen[s.Code()], "duplicate live room code %s", s.Code())
		seen[s.Code()] = true
		assert.Equal(t, creator.ID, s.CreatorID())
	}
}

func TestGetUnknownRoom(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Get("ZZZZ")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBindConnection(t *testing.T) {
	r := newTestRegistry(t)
	s, _ := r.CreateSession("host", "h-host", models.DefaultSettings())
	t.Cleanup(s.Close)

	got, p, err := r.BindConnection(s.Code(), "guest", "h-guest")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.True(t, p.Connected)

	code, pid, ok := r.Resolve("h-guest")
	require.True(t, ok)
	assert.Equal(t, s.Code(), code)
	assert.Equal(t, p.ID, pid)

	_, _, err = r.BindConnection("ZZZZ", "guest", "h-lost")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBindConnectionCapacity(t *testing.T) {
	r := newTestRegistry(t)
	s, _ := r.CreateSession("host", "h-host", models.DefaultSettings())
	t.Cleanup(s.Close)

	for i := 0; i < maxParticipants-1; i++ {
		_, _, err := r.BindConnection(s.Code(), uuid.NewString(), uuid.NewString())
		require.NoError(t, err)
	}
	_, _, err := r.BindConnection(s.Code(), "late", "h-late")
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestUnbindConnectionDisconnects(t *testing.T) {
	r := newTestRegistry(t)
	s, _ := r.CreateSession("host", "h-host", models.DefaultSettings())
	t.Cleanup(s.Close)

	_, p, err := r.BindConnection(s.Code(), "guest", "h-guest")
	require.NoError(t, err)

	r.UnbindConnection("h-guest")
	_, _, ok := r.Resolve("h-guest")
	assert.False(t, ok)

	for _, part := range s.Participants() {
		if part.ID == p.ID {
			assert.False(t, part.Connected)
		}
	}
	// The participant survives the disconnect.
	assert.Len(t, s.Participants(), 2)

	// Unknown handles are ignored.
	r.UnbindConnection("h-never-bound")
}

func TestRebindConnection(t *testing.T) {
	r := newTestRegistry(t)
	s, creator := r.CreateSession("host", "h-host", models.DefaultSettings())
	t.Cleanup(s.Close)

	r.UnbindConnection("h-host")

	got, p, err := r.RebindConnection(s.Code(), creator.ID, "h-host-2")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, creator.ID, p.ID)
	assert.True(t, p.Connected)

	code, pid, ok := r.Resolve("h-host-2")
	require.True(t, ok)
	assert.Equal(t, s.Code(), code)
	assert.Equal(t, creator.ID, pid)

	_, _, err = r.RebindConnection(s.Code(), uuid.New(), "h-nobody")
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestBindConnectionReconnectsByName(t *testing.T) {
	r := newTestRegistry(t)
	s, _ := r.CreateSession("host", "h-host", models.DefaultSettings())
	t.Cleanup(s.Close)

	_, guest, err := r.BindConnection(s.Code(), "guest", "h-guest")
	require.NoError(t, err)
	r.UnbindConnection("h-guest")

	_, again, err := r.BindConnection(s.Code(), "guest", "h-guest-2")
	require.NoError(t, err)
	assert.Equal(t, guest.ID, again.ID)
	assert.Len(t, s.Participants(), 2)
}
