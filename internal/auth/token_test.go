// internal/auth/token_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	Init()
	id := uuid.New()

	token, err := MintUserToken(id)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := VerifyUserToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	Init()
	_, err := VerifyUserToken("not-a-token")
	assert.Error(t, err)

	_, err = VerifyUserToken("")
	assert.Error(t, err)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	Init()
	token, err := MintUserToken(uuid.New())
	require.NoError(t, err)

	_, err = VerifyUserToken(token + "xx")
	assert.Error(t, err)
}

func TestVerifyRejectsTokenFromOtherKeyPair(t *testing.T) {
	Init()
	token, err := MintUserToken(uuid.New())
	require.NoError(t, err)

	// Rotating the keys invalidates everything minted before.
	Init()
	_, err = VerifyUserToken(token)
	assert.Error(t, err)
}
