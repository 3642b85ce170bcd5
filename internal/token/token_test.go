package token

import (
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestSignAndParse(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	raw, err := Sign(secret, userID, domain.RoleAdmin, now, 15*time.Minute)
	require.NoError(t, err)

	claims, err := Parse(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, now.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)

	identity := claims.Identity()
	assert.False(t, identity.IsGuest())
	assert.True(t, identity.IsAdmin())
}

func TestParse_Errors(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	valid, err := Sign(secret, userID, domain.RoleUser, now, time.Minute)
	require.NoError(t, err)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name string
		raw  string
		opts []jwt.ParserOption
		want error
	}{
		{
			name: "expired",
			raw:  valid,
			opts: []jwt.ParserOption{jwt.WithTimeFunc(func() time.Time { return now.Add(time.Hour) })},
			want: domain.ErrTokenExpired,
		},
		{name: "tampered", raw: valid + "x", want: domain.ErrTokenInvalid},
		{name: "garbage", raw: "not.a.jwt", want: domain.ErrTokenInvalid},
		{
			name: "wrong secret",
			raw:  sign(t, jwt.SigningMethodHS256, []byte("other-secret"), &Claims{UserID: userID, Role: domain.RoleUser}),
			want: domain.ErrTokenInvalid,
		},
		{
			name: "unsigned",
			raw:  sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{UserID: userID, Role: domain.RoleAdmin}),
			want: domain.ErrTokenInvalid,
		},
		{
			name: "missing user",
			raw:  sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": userID.String(), "role": domain.RoleUser}),
			want: ErrInvalidClaims,
		},
		{
			name: "missing role",
			raw:  sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"userId": userID.String()}),
			want: ErrInvalidClaims,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(secret, tt.raw, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
