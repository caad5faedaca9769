package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("01234567890123456789012345678901")

func TestNewTokenAuth_RejectsShortKey(t *testing.T) {
	_, err := NewTokenAuth([]byte("too-short"), 1, time.Hour)
	require.Error(t, err)
}

func TestNewTokenAuth_RejectsZeroTimeout(t *testing.T) {
	_, err := NewTokenAuth(testKey, 1, 0)
	require.Error(t, err)
}

func TestTokenAuth_IssueThenVerifyRoundTrips(t *testing.T) {
	ta, err := NewTokenAuth(testKey, 1, time.Hour)
	require.NoError(t, err)

	token, expires, err := ta.Issue(42, 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expires.After(time.Now()))

	uid, gotExpires, err := ta.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), uid)
	require.Equal(t, expires, gotExpires)
}

func TestTokenAuth_VerifyRejectsExpiredToken(t *testing.T) {
	ta, err := NewTokenAuth(testKey, 1, time.Hour)
	require.NoError(t, err)

	token, _, err := ta.Issue(42, -time.Minute)
	require.NoError(t, err)

	_, _, err = ta.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenAuth_VerifyRejectsTamperedSignature(t *testing.T) {
	ta, err := NewTokenAuth(testKey, 1, time.Hour)
	require.NoError(t, err)

	token, _, err := ta.Issue(42, time.Hour)
	require.NoError(t, err)

	tampered := []byte(token)
	tampered[0] ^= 1
	_, _, err = ta.Verify(string(tampered))
	require.Error(t, err)
}

func TestTokenAuth_VerifyRejectsStaleSerial(t *testing.T) {
	ta, err := NewTokenAuth(testKey, 1, time.Hour)
	require.NoError(t, err)
	token, _, err := ta.Issue(42, time.Hour)
	require.NoError(t, err)

	bumped, err := NewTokenAuth(testKey, 2, time.Hour)
	require.NoError(t, err)

	_, _, err = bumped.Verify(token)
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenAuth_VerifyRejectsGarbage(t *testing.T) {
	ta, err := NewTokenAuth(testKey, 1, time.Hour)
	require.NoError(t, err)

	_, _, err = ta.Verify("not-a-valid-token")
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestJWTVerifier_IssueThenVerifyRoundTrips(t *testing.T) {
	v := NewJWTVerifier([]byte("jwt-signing-secret"))
	tok, err := v.Issue(7, time.Hour)
	require.NoError(t, err)

	uid, err := v.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, int64(7), uid)
}

func TestJWTVerifier_RejectsTokenSignedWithDifferentSecret(t *testing.T) {
	a := NewJWTVerifier([]byte("secret-a"))
	b := NewJWTVerifier([]byte("secret-b"))

	tok, err := a.Issue(7, time.Hour)
	require.NoError(t, err)

	_, err = b.Verify(tok)
	require.Error(t, err)
}

func TestJWTVerifier_RejectsExpiredToken(t *testing.T) {
	v := NewJWTVerifier([]byte("jwt-signing-secret"))
	tok, err := v.Issue(7, -time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	require.True(t, CheckPassword(hash, "correct-horse-battery-staple"))
	require.False(t, CheckPassword(hash, "wrong-password"))
}

func TestAPIKeyGate_IssueThenCheckRoundTrips(t *testing.T) {
	g := NewAPIKeyGate([]byte("api-key-salt"))
	key := g.Issue(1, true)

	valid, isService := g.Check(key)
	require.True(t, valid)
	require.True(t, isService)

	browserKey := g.Issue(2, false)
	valid, isService = g.Check(browserKey)
	require.True(t, valid)
	require.False(t, isService)
}

func TestAPIKeyGate_CheckRejectsWrongSalt(t *testing.T) {
	g := NewAPIKeyGate([]byte("api-key-salt"))
	key := g.Issue(1, true)

	other := NewAPIKeyGate([]byte("different-salt"))
	valid, _ := other.Check(key)
	require.False(t, valid)
}

func TestAPIKeyGate_CheckRejectsMalformedInput(t *testing.T) {
	g := NewAPIKeyGate([]byte("api-key-salt"))
	valid, _ := g.Check("not-base64-shaped!!")
	require.False(t, valid)
}
