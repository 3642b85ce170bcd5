package notification

import (
	"context"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them. Used when
// no SMTP host is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOTP(_ context.Context, email, code string) error {
	s.logger.Info("otp issued", zap.String("email", email), zap.String("code", code))
	return nil
}

func (s *LogSender) SendOrderConfirmation(_ context.Context, email string, order *domain.Order) error {
	s.logger.Info("order confirmation",
		zap.String("email", email),
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return nil
}
