package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorEnvelope is the body of every non-2xx response
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// clock stamps error bodies; tests pin it.
var clock = time.Now

func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]any) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: ErrorBody{
		Code:      http.StatusText(statusCode),
		Message:   message,
		Details:   details,
		Timestamp: clock().UTC().Format(time.RFC3339),
	}})
}

// RespondWithValidationErrors reports field failures under
// details.validation_errors with a 400.
func RespondWithValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	RespondWithErrorDetails(w, http.StatusBadRequest, "validation failed", map[string]any{
		"validation_errors": errs,
	})
}

func RespondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	writeJSON(w, statusCode, payload)
}

// writeJSON commits the status before encoding, so an encode failure can
// only truncate the body.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// Recoverer turns a handler panic into a logged 500. http.ErrAbortHandler is
// re-raised so net/http can drop the connection, and nothing is written when
// the handler had already started its response.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Panic recovered",
					zap.Any("error", rec),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Bool("response_started", ww.Status() != 0),
					zap.Stack("stack"),
				)

				if ww.Status() == 0 {
					RespondWithError(ww, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
