package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerClaims is the claim set accepted on the bearer-token verification
// path used by service-to-service callers (the session cookie remains the
// opaque HMAC token from token.go for browser clients).
type BearerClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// JWTVerifier validates bearer tokens issued by a trusted identity
// provider, using github.com/golang-jwt/jwt/v5 rather than hand-rolling
// JWT parsing.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

// Verify parses and validates tokenString, returning the embedded user id.
func (v *JWTVerifier) Verify(tokenString string) (int64, error) {
	claims := &BearerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return 0, errors.New("auth: invalid bearer token")
	}
	return claims.UserID, nil
}

// Issue mints a bearer token for userID, used by tests and internal
// service callers that bypass the cookie-based session flow.
func (v *JWTVerifier) Issue(userID int64, ttl time.Duration) (string, error) {
	claims := &BearerClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
