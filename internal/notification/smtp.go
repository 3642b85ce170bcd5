package notification

import (
	"context"
	"fmt"
	"net"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const defaultSMTPTimeout = 10 * time.Second

type sendFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPSender delivers plain-text mail through an SMTP relay
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	send   sendFunc
}

func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	s := &SMTPSender{cfg: cfg, logger: logger}
	s.send = s.dialAndSend
	return s
}

func (s *SMTPSender) SendOTP(ctx context.Context, email, code string) error {
	body, err := renderOTP(code, "5 minutes")
	if err != nil {
		return err
	}
	return s.deliver(ctx, email, "Your verification code", body)
}

func (s *SMTPSender) SendOrderConfirmation(ctx context.Context, email string, order *domain.Order) error {
	body, err := renderOrderConfirmation(order)
	if err != nil {
		return err
	}
	return s.deliver(ctx, email, "Order confirmation", body)
}

func (s *SMTPSender) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (s *SMTPSender) buildMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithDialContextFunc(dialWithDeadline),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// dialWithDeadline bounds the whole SMTP conversation, greeting included,
// by the context deadline.
func dialWithDeadline(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}
