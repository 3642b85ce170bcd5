// Package token issues and parses the HS256 access tokens shared by the
// auth service and the HTTP middleware.
package token

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidClaims marks a token whose signature is valid but whose payload
// does not name a user and role.
var ErrInvalidClaims = fmt.Errorf("%w: missing user claims", domain.ErrTokenInvalid)

// Claims represents the JWT claims
type Claims struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the caller the claims describe
func (c *Claims) Identity() domain.Identity {
	return domain.UserIdentity(c.UserID, c.Role)
}

// Sign issues an access token for userID valid for ttl from now
func Sign(secret string, userID uuid.UUID, role string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse verifies raw against secret. Failures wrap domain.ErrTokenExpired or
// domain.ErrTokenInvalid.
func Parse(secret, raw string, opts ...jwt.ParserOption) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}
	if claims.UserID == uuid.Nil || claims.Role == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
