package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// API key composition, reused in shape from the teacher's api_key.go:
//   [1:version][2:sequence][1:isService][16:signature] = 20 bytes
// little-endian, base64-url encoded with padding. The teacher's 4-byte
// "appid" field is dropped — this core has one application, not a
// multi-tenant app registry, so there is nothing for it to disambiguate.
const (
	apiKeyVersion   = 1
	apiKeySeqLen    = 2
	apiKeyWhoLen    = 1
	apiKeySigLen    = 16
	apiKeyTotalLen  = apiKeyVersion + apiKeySeqLen + apiKeyWhoLen + apiKeySigLen
	apiKeyHeaderLen = apiKeyVersion + apiKeySeqLen + apiKeyWhoLen
)

// APIKeyGate validates the pre-auth API key header accepted before rate
// limiting and session checks run.
type APIKeyGate struct {
	salt []byte
}

func NewAPIKeyGate(salt []byte) *APIKeyGate {
	return &APIKeyGate{salt: salt}
}

// Check reports whether key is well-formed and signed with the gate's
// salt, and whether it was issued to a service (non-browser) client.
func (g *APIKeyGate) Check(key string) (valid bool, isService bool) {
	data, err := base64.URLEncoding.DecodeString(key)
	if err != nil || len(data) != apiKeyTotalLen {
		return false, false
	}
	if data[0] != 1 {
		return false, false
	}

	hasher := hmac.New(sha256.New, g.salt)
	hasher.Write(data[:apiKeyHeaderLen])
	sig := hasher.Sum(nil)[:apiKeySigLen]
	if !hmac.Equal(data[apiKeyHeaderLen:], sig) {
		return false, false
	}

	isService = data[apiKeyVersion+apiKeySeqLen] == 1
	return true, isService
}

// Issue mints a new API key for the given sequence number.
func (g *APIKeyGate) Issue(seq uint16, isService bool) string {
	buf := new(bytes.Buffer)
	buf.WriteByte(apiKeyVersion)
	seqBytes := []byte{byte(seq), byte(seq >> 8)}
	buf.Write(seqBytes)
	if isService {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	hasher := hmac.New(sha256.New, g.salt)
	hasher.Write(buf.Bytes())
	buf.Write(hasher.Sum(nil)[:apiKeySigLen])

	return base64.URLEncoding.EncodeToString(buf.Bytes())
}
