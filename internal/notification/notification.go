package notification

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/domain"

	"go.uber.org/zap"
)

// Sender delivers transactional messages to customers
type Sender interface {
	SendOTP(ctx context.Context, email, code string) error
	SendOrderConfirmation(ctx context.Context, email string, order *domain.Order) error
}

// New picks the SMTP sender when a relay host is configured and falls back
// to logging otherwise.
func New(cfg config.SMTPConfig, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		logger.Warn("SMTP host not configured, emails will only be logged")
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg, logger)
}
