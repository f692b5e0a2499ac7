package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failure kinds. They are kept distinct for diagnostics
// only; the HTTP boundary maps all of them to the same unauthorized response.
var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
)

// JWTManager issues and verifies signed session tokens. The subject (the
// user's email) and the expiry are the only claims carried; tokens are
// stateless and cannot be revoked before they expire.
type JWTManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewJWTManager builds a manager for the given symmetric secret, algorithm
// name (HS256, HS384 or HS512) and token lifetime.
func NewJWTManager(secret, algorithm string, ttl time.Duration) (*JWTManager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}
	return &JWTManager{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (m *JWTManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for subject, valid in [now, now+TTL).
func (m *JWTManager) Issue(subject string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
}

// Parse verifies signature and expiry against now and returns the subject.
// Tokens signed with any algorithm other than the configured one are
// rejected, even a sibling HMAC method under the same secret.
func (m *JWTManager) Parse(tokenStr string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, ErrTokenSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignatureInvalid):
			return "", ErrTokenSignatureInvalid
		default:
			return "", ErrTokenMalformed
		}
	}
	if !tkn.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
