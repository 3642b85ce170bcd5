package transport

import (
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Profile  string `json:"profile,omitempty" validate:"omitempty,url"`
}

// EmailRequest carries the address an OTP is (re)sent to
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest represents the OTP verification payload
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh and logout payload
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthHandler handles HTTP requests for account operations
type AuthHandler struct {
	authService service.AuthService
	cartService service.CartService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, cartService service.CartService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		// Public routes
		r.Post("/register", h.Register)
		r.Post("/resend-otp", h.ResendOTP)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.RefreshToken)
		r.Post("/logout", h.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/profile", h.GetProfile)
		})
	})
}

// Register creates an unverified account and emails its first OTP
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Profile:  req.Profile,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Registration", err)
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "registration successful, check your email for the verification code",
		"user":    user,
	})
}

// ResendOTP issues a fresh verification code
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	if err := h.authService.SendOTP(r.Context(), req.Email); err != nil {
		respondWithServiceError(w, h.logger, "OTP resend", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

// VerifyOTP marks the account verified and signs the user in
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	result, err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		respondWithServiceError(w, h.logger, "OTP verification", err)
		return
	}

	h.logger.Info("User verified", zap.String("user_id", result.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Login authenticates the user. A guest cart named by the cart session
// header is merged into the user's cart; merge failures do not fail login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, "Login", err)
		return
	}

	if session := strings.TrimSpace(r.Header.Get(middleware.CartSessionHeader)); session != "" {
		if _, err := uuid.Parse(session); err == nil {
			if err := h.cartService.MergeGuestCart(r.Context(), session, result.User.ID); err != nil {
				h.logger.Warn("Failed to merge guest cart",
					zap.Error(err),
					zap.String("user_id", result.User.ID.String()),
				)
			}
		}
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", result.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// RefreshToken rotates a refresh token into a new pair
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		respondWithServiceError(w, h.logger, "Token refresh", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, tokens)
}

// Logout revokes a refresh token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		respondWithServiceError(w, h.logger, "Logout", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// GetProfile returns the authenticated user
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if identity.IsGuest() {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Profile lookup", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

