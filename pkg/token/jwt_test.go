package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", 1)

	signed, claims, err := m.GenerateToken("alice", "100200300400")
	require.NoError(t, err)

	got, err := m.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "100200300400", got.AccountID)
	assert.Equal(t, claims.ID, got.ID)

	other, _, err := m.GenerateToken("alice", "100200300400")
	require.NoError(t, err)
	assert.NotEqual(t, signed, other)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	signed, _, err := NewJWTManager("secret-a", 1).GenerateToken("alice", "1")
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", 1).VerifyToken(signed)
	assert.Error(t, err)
}
