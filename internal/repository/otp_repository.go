package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

var ErrOTPNotFound = fmt.Errorf("otp %w", domain.ErrNotFound)

// OTPRepository keeps at most one verification code per email
type OTPRepository interface {
	Upsert(ctx context.Context, otp *domain.OTP) error
	FindByEmail(ctx context.Context, email string) (*domain.OTP, error)
	IncrementAttempts(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}

type otpRepository struct {
	db DBTX
}

func NewOTPRepository(db DBTX) OTPRepository {
	return &otpRepository{db: db}
}

// Upsert replaces any previous code for the email and resets attempts
func (r *otpRepository) Upsert(ctx context.Context, otp *domain.OTP) error {
	query := `
		INSERT INTO otps (email, code, expires_at, attempts)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, attempts = 0
	`

	if _, err := r.db.ExecContext(ctx, query, otp.Email, otp.Code, otp.ExpiresAt); err != nil {
		return fmt.Errorf("failed to upsert otp: %w", err)
	}
	return nil
}

func (r *otpRepository) FindByEmail(ctx context.Context, email string) (*domain.OTP, error) {
	otp := &domain.OTP{}
	err := r.db.QueryRowContext(ctx,
		`SELECT email, code, expires_at, attempts FROM otps WHERE email = $1`, email,
	).Scan(&otp.Email, &otp.Code, &otp.ExpiresAt, &otp.Attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("failed to find otp: %w", err)
	}
	return otp, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE otps SET attempts = attempts + 1 WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to increment otp attempts: %w", err)
	}
	return nil
}

func (r *otpRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}
