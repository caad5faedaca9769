// Package auth implements password hashing, the opaque HMAC session
// token, a JWT bearer verification path, and the pre-auth API-key gate.
package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

// Session token composition, following the teacher's auth_token.go byte
// layout: [8:userID][4:expires][2:serial][32:signature] == 46 bytes. The
// authLevel field the teacher carries is dropped — this core has a single
// authenticated level (there is no anonymous/guest tier in the spec), so
// the field would always be constant.
const (
	uidStart, uidEnd       = 0, 8
	expiresStart, expiresEnd = 8, 12
	serialStart, serialEnd   = 12, 14
	signStart                = 14

	tokenLengthDecoded = 46
	tokenMinKeyLength  = 32
)

var (
	ErrMalformedToken = errors.New("auth: malformed token")
	ErrExpiredToken   = errors.New("auth: expired token")
	ErrBadSignature   = errors.New("auth: invalid signature")
)

// TokenAuth signs and verifies opaque session tokens.
type TokenAuth struct {
	key     []byte
	serial  uint16
	timeout time.Duration
}

// NewTokenAuth builds a TokenAuth. key must be at least 32 bytes; serial
// lets every issued token be invalidated at once by bumping it.
func NewTokenAuth(key []byte, serial uint16, timeout time.Duration) (*TokenAuth, error) {
	if len(key) < tokenMinKeyLength {
		return nil, errors.New("auth: session key too short")
	}
	if timeout <= 0 {
		return nil, errors.New("auth: invalid token timeout")
	}
	return &TokenAuth{key: key, serial: serial, timeout: timeout}, nil
}

// Issue mints a signed token string for userID with the configured
// lifetime, or lifetime if non-zero.
func (t *TokenAuth) Issue(userID int64, lifetime time.Duration) (string, time.Time, error) {
	if lifetime == 0 {
		lifetime = t.timeout
	}
	expires := time.Now().Add(lifetime).UTC().Round(time.Second)

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint64(userID))
	binary.Write(buf, binary.LittleEndian, uint32(expires.Unix()))
	binary.Write(buf, binary.LittleEndian, t.serial)

	hasher := hmac.New(sha256.New, t.key)
	hasher.Write(buf.Bytes())
	buf.Write(hasher.Sum(nil))

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), expires, nil
}

// Verify checks a token string, returning the userID it was issued for.
func (t *TokenAuth) Verify(token string) (int64, time.Time, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != tokenLengthDecoded {
		return 0, time.Time{}, ErrMalformedToken
	}

	if snum := binary.LittleEndian.Uint16(raw[serialStart:serialEnd]); snum != t.serial {
		return 0, time.Time{}, ErrMalformedToken
	}

	hasher := hmac.New(sha256.New, t.key)
	hasher.Write(raw[:signStart])
	if !hmac.Equal(raw[signStart:], hasher.Sum(nil)) {
		return 0, time.Time{}, ErrBadSignature
	}

	expires := time.Unix(int64(binary.LittleEndian.Uint32(raw[expiresStart:expiresEnd])), 0).UTC()
	if expires.Before(time.Now()) {
		return 0, time.Time{}, ErrExpiredToken
	}

	userID := int64(binary.LittleEndian.Uint64(raw[uidStart:uidEnd]))
	return userID, expires, nil
}
