package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 7, "zhangwei", "Engineer", "Zhang Wei", "EMC", 15)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "zhangwei", claims.Username)
	assert.Equal(t, "Engineer", claims.Role)
	assert.Equal(t, "Zhang Wei", claims.FullName)
	assert.Equal(t, "EMC", claims.Team)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 7, "zhangwei", "Engineer", "", "", 15)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseExpiredToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// An expired token must fail the normal parse but pass the signature-only
// parse used by the refresh flow.
func TestExpiredTokenRefreshPath(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 7, "zhangwei", "Engineer", "", "", -5)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := ParseExpiredToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "zhangwei", claims.Username)
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 88)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.True(t, a.Exp.After(time.Now().Add(6*24*time.Hour)))
}
