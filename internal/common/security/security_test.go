package security

import (
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateOpaqueToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := GenerateOpaqueToken()
		require.NoError(t, err)
		require.Len(t, tok, 64)
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token generated")
		seen[tok] = struct{}{}
	}
}

func TestHashOpaqueToken(t *testing.T) {
	tok, err := GenerateOpaqueToken()
	require.NoError(t, err)

	h := HashOpaqueToken(tok)
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashOpaqueToken(tok))
	assert.NotEqual(t, tok, h)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, h.Verify("s3cret-pass", hash))
	assert.False(t, h.Verify("wrong", hash))
}

func TestNewBcryptHasher_OutOfRangeCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(100).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	InitJWT([]byte("test-secret"), time.Hour)

	signed, err := GenerateToken("user-1", "ADMIN")
	require.NoError(t, err)

	tok, err := jwtauth.VerifyToken(TokenAuth, signed)
	require.NoError(t, err)
	claims, err := tok.AsMap(t.Context())
	require.NoError(t, err)

	id, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	role, err := GetUserRoleFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", role)
}

func TestGetUserIDFromClaims_Missing(t *testing.T) {
	_, err := GetUserIDFromClaims(map[string]interface{}{"role": "MEMBER"})
	assert.Error(t, err)
}
