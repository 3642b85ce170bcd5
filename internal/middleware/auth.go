package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	IdentityKey contextKey = "identity"

	// identitySlotKey holds a *domain.Identity owned by an outer middleware
	identitySlotKey contextKey = "identity_slot"
)

// CartSessionHeader carries the guest cart token in both directions
const CartSessionHeader = "X-Cart-Session"

var (
	errMissingAuth   = errors.New("missing authorization header")
	errInvalidFormat = errors.New("invalid authorization header format")
)

// AuthMiddleware validates JWT tokens and extracts user claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := identityFromHeader(jwtSecret, r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("Authentication failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, authErrorMessage(err))
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", identity.UserID.String()),
				zap.String("role", identity.Role),
			)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalIdentity resolves a user identity when a bearer token is sent and a
// guest identity otherwise. Guests without a session token get a new one,
// echoed back in CartSessionHeader. A token that is present but invalid is
// still rejected so clients know to refresh.
func OptionalIdentity(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identity domain.Identity

			if r.Header.Get("Authorization") != "" {
				var err error
				identity, err = identityFromHeader(jwtSecret, r.Header.Get("Authorization"))
				if err != nil {
					logger.Debug("Authentication failed", zap.Error(err))
					RespondWithError(w, http.StatusUnauthorized, authErrorMessage(err))
					return
				}
			} else {
				session := strings.TrimSpace(r.Header.Get(CartSessionHeader))
				if _, err := uuid.Parse(session); err != nil {
					session = uuid.NewString()
				}
				identity = domain.GuestIdentity(session)
				w.Header().Set(CartSessionHeader, session)
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// ResolveIdentity attaches the bearer identity when the request carries a
// valid access token and otherwise passes the request through untouched.
// Rejection stays with AuthMiddleware and OptionalIdentity on the routes.
func ResolveIdentity(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, err := identityFromHeader(jwtSecret, r.Header.Get("Authorization")); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFromHeader(jwtSecret, authHeader string) (domain.Identity, error) {
	if authHeader == "" {
		return domain.Identity{}, errMissingAuth
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return domain.Identity{}, errInvalidFormat
	}

	claims, err := token.Parse(jwtSecret, parts[1])
	if err != nil {
		return domain.Identity{}, err
	}
	return claims.Identity(), nil
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, errMissingAuth), errors.Is(err, errInvalidFormat):
		return err.Error()
	case errors.Is(err, token.ErrInvalidClaims):
		return "invalid token claims"
	case errors.Is(err, domain.ErrTokenExpired):
		return "token expired"
	default:
		return "invalid token"
	}
}

// WithIdentity stores the resolved identity on ctx
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	if slot, ok := ctx.Value(identitySlotKey).(*domain.Identity); ok {
		*slot = identity
	}
	ctx = context.WithValue(ctx, IdentityKey, identity)
	if !identity.IsGuest() {
		ctx = context.WithValue(ctx, UserIDKey, identity.UserID.String())
		ctx = context.WithValue(ctx, UserRoleKey, identity.Role)
	}
	return ctx
}

// GetIdentity extracts the caller identity from request context
func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
