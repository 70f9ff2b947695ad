// internal/auth/token_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatorTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	pid := uuid.New()
	token, err := CreateCreatorToken("ABCD", pid)
	require.NoError(t, err)

	room, got, err := VerifyCreatorToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", room)
	assert.Equal(t, pid, got)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	require.NoError(t, Init())

	_, _, err := VerifyCreatorToken("not.a.token")
	assert.Error(t, err)

	_, _, err = VerifyCreatorToken("")
	assert.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init())
	token, err := CreateCreatorToken("WXYZ", uuid.New())
	require.NoError(t, err)

	// Rotating the key pair invalidates previously issued tokens.
	require.NoError(t, Init())
	_, _, err = VerifyCreatorToken(token)
	assert.Error(t, err)
}
