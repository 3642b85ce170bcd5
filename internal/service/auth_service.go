package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/notification"
	"storefront/internal/repository"
	"storefront/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 12

	OTPExpiration  = 5 * time.Minute
	MaxOTPAttempts = 5

	refreshTokenBytes = 64
)

// TokenPair is issued on verification, login and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is a token pair plus the user it was issued for
type AuthResult struct {
	User   *domain.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Profile  string
}

// AuthService defines the interface for account and token business logic
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type authService struct {
	userRepo         repository.UserRepository
	otpRepo          repository.OTPRepository
	refreshTokenRepo repository.RefreshTokenRepository
	notifier         notification.Sender
	cfg              AuthConfig
	logger           *zap.Logger
	bcryptCost       int
	now              func() time.Time
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	notifier notification.Sender,
	cfg AuthConfig,
	logger *zap.Logger,
) AuthService {
	if cfg.AccessExpiry <= 0 {
		cfg.AccessExpiry = 15 * time.Minute
	}
	if cfg.RefreshExpiry <= 0 {
		cfg.RefreshExpiry = 7 * 24 * time.Hour
	}
	return &authService{
		userRepo:         userRepo,
		otpRepo:          otpRepo,
		refreshTokenRepo: refreshTokenRepo,
		notifier:         notifier,
		cfg:              cfg,
		logger:           logger,
		bcryptCost:       BcryptCost,
		now:              time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and sends its first OTP
func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, repository.ErrUserAlreadyExists
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Profile:      input.Profile,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.SendOTP(ctx, user.Email); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// SendOTP issues a fresh code for email, replacing any previous one
func (s *authService) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.userRepo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	otp := &domain.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(OTPExpiration),
	}
	if err := s.otpRepo.Upsert(ctx, otp); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}
	return nil
}

// VerifyOTP marks the account verified and signs the user in
func (s *authService) VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	email = normalizeEmail(email)

	otp, err := s.otpRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return nil, domain.ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to find otp: %w", err)
	}

	if otp.Attempts >= MaxOTPAttempts {
		return nil, domain.ErrTooManyAttempts
	}
	if otp.Expired(s.now()) {
		return nil, domain.ErrInvalidOTP
	}
	if otp.Code != code {
		if err := s.otpRepo.IncrementAttempts(ctx, email); err != nil {
			return nil, fmt.Errorf("failed to record otp attempt: %w", err)
		}
		return nil, domain.ErrInvalidOTP
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	user.IsVerified = true

	if err := s.otpRepo.Delete(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to delete otp: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: *tokens}, nil
}

// Login authenticates a verified user and returns a token pair
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, domain.ErrNotVerified
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: *tokens}, nil
}

// RefreshToken rotates a refresh token: the presented one is consumed and a
// new pair is issued.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	hash := hashToken(refreshToken)

	stored, err := s.refreshTokenRepo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if err := s.refreshTokenRepo.DeleteByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// lost a race with a concurrent rotation
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if s.now().After(stored.ExpiresAt) {
		return nil, domain.ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout invalidates the refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.DeleteByHash(ctx, hashToken(refreshToken)); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// Token doesn't exist, consider it already logged out
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *authService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *authService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *authService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// generateAccessToken generates a JWT access token with user ID and role claims
func (s *authService) generateAccessToken(user *domain.User) (string, error) {
	return token.Sign(s.cfg.JWTSecret, user.ID, user.Role, s.now(), s.cfg.AccessExpiry)
}

// generateRefreshToken stores only the hash; the raw token goes to the client
func (s *authService) generateRefreshToken(ctx context.Context, user *domain.User) (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	tokenString := hex.EncodeToString(buf)

	now := s.now()
	refreshToken := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(tokenString),
		ExpiresAt: now.Add(s.cfg.RefreshExpiry),
		CreatedAt: now,
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", err
	}

	return tokenString, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
