package attachments

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSigner(ttl time.Duration) *Signer {
	return NewSigner([]byte("a-signing-key-at-least-this-long"), ttl, "https://cdn.example.com")
}

func parseSignedURL(t *testing.T, signed string) (key string, owner, expires int64, sig string) {
	t.Helper()
	u, err := url.Parse(signed)
	require.NoError(t, err)
	q := u.Query()
	owner, err = strconv.ParseInt(q.Get("owner"), 10, 64)
	require.NoError(t, err)
	expires, err = strconv.ParseInt(q.Get("expires"), 10, 64)
	require.NoError(t, err)
	return q.Get("key"), owner, expires, q.Get("sig")
}

func TestSigner_VerifyAcceptsItsOwnSignature(t *testing.T) {
	s := newTestSigner(time.Minute)
	signed := s.Sign("uploads/abc", 7)

	key, owner, expires, sig := parseSignedURL(t, signed)
	require.Equal(t, "uploads/abc", key)
	require.Equal(t, int64(7), owner)
	require.NoError(t, s.Verify(key, owner, expires, sig))
}

func TestSigner_VerifyRejectsWrongOwner(t *testing.T) {
	s := newTestSigner(time.Minute)
	signed := s.Sign("uploads/abc", 7)
	key, _, expires, sig := parseSignedURL(t, signed)

	err := s.Verify(key, 999, expires, sig)
	require.Error(t, err, "a signature minted for one owner must not verify for another")
}

func TestSigner_VerifyRejectsTamperedKey(t *testing.T) {
	s := newTestSigner(time.Minute)
	signed := s.Sign("uploads/abc", 7)
	_, owner, expires, sig := parseSignedURL(t, signed)

	err := s.Verify("uploads/different-object", owner, expires, sig)
	require.Error(t, err)
}

func TestSigner_VerifyRejectsExpiredURL(t *testing.T) {
	s := newTestSigner(-time.Minute) // already-expired TTL
	signed := s.Sign("uploads/abc", 7)
	key, owner, expires, sig := parseSignedURL(t, signed)

	err := s.Verify(key, owner, expires, sig)
	require.Error(t, err)
}

func TestIsExternal(t *testing.T) {
	require.True(t, IsExternal("https://example.com/file.png"))
	require.False(t, IsExternal("uploads/internal-key"))
}
