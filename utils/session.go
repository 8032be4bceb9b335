package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quietpage/inkwell/config"
)

// ErrBadSessionToken covers every way a session token can fail verification:
// wrong signature, wrong algorithm, expiry, or malformed claims. Callers only
// need to know the session is not usable.
var ErrBadSessionToken = errors.New("bad session token")

// SessionClaims is the payload of the signed session cookie: just enough
// identity to resolve the acting user on each request without a lookup.
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewSessionToken signs a session token for the given actor, valid for ttl.
// The token goes into the session cookie verbatim.
func NewSessionToken(userID uint, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Get().JWTSecret))
}

// ParseSessionToken verifies a session cookie value and returns its claims.
func ParseSessionToken(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSessionToken
		}
		return []byte(config.Get().JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrBadSessionToken
	}
	return claims, nil
}
