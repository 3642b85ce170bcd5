package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusFor maps a domain error kind to its HTTP status. Unknown errors are
// internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidReference),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrSignatureInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotVerified), errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes err using its mapped status. Messages of
// client errors are returned verbatim; server errors are logged and hidden.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
		middleware.RespondWithError(w, status, "internal server error")
		return
	}

	logger.Debug(op+" rejected", zap.Error(err), zap.Int("status", status))
	middleware.RespondWithError(w, status, err.Error())
}

// decodeRequest decodes and validates the body into v, writing the error
// response itself. It reports whether the handler should continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err))

		if middleware.IsValidationError(err) {
			middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Identity{}, false
	}
	return identity, true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

type errInvalidQuery string

func (e errInvalidQuery) Error() string {
	return "invalid query parameter " + string(e)
}

func respondWithFieldError(w http.ResponseWriter, field, message string) {
	middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: field, Message: message}})
}
