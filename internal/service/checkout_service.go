package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/notification"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutService turns carts into payment sessions and reacts to the
// provider's confirmation callbacks.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, identity domain.Identity) (*payment.Session, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type checkoutService struct {
	carts       CartService
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	provider    payment.Provider
	notifier    notification.Sender
	frontendURL string
	logger      *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	carts CartService,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	provider payment.Provider,
	notifier notification.Sender,
	frontendURL string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		carts:       carts,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		provider:    provider,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// CreateCheckoutSession opens a hosted payment session for the identity's
// cart and records a pending order snapshot. Every call creates a new order.
func (s *checkoutService) CreateCheckoutSession(ctx context.Context, identity domain.Identity) (*payment.Session, error) {
	cart, err := s.carts.GetCart(ctx, identity)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	lineItems := make([]payment.LineItem, 0, len(cart.Items))
	orderItems := make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		image := ""
		if len(item.Product.Images) > 0 {
			image = item.Product.Images[0]
		}

		lineItems = append(lineItems, payment.LineItem{
			Name:       item.Product.Name,
			Image:      image,
			UnitAmount: MinorUnits(item.Product.Price),
			Quantity:   int64(item.Quantity),
		})
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			Image:     image,
		})
	}

	session, err := s.provider.CreateSession(ctx, payment.SessionRequest{
		LineItems:  lineItems,
		SuccessURL: s.frontendURL + "/order/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.frontendURL + "/cart",
		Metadata:   map[string]string{"userId": identity.MetadataValue()},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &domain.Order{
		ID:             uuid.New(),
		Items:          orderItems,
		Subtotal:       cart.Subtotal,
		Tax:            decimal.Zero,
		Shipping:       decimal.Zero,
		Total:          cart.Subtotal,
		Status:         domain.OrderStatusPending,
		PaymentSession: session.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if !identity.IsGuest() {
		userID := identity.UserID
		order.UserID = &userID
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create pending order: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", session.ID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return session, nil
}

// HandleWebhook processes a signed provider callback. The order status is
// left as is; fulfillment is advanced through UpdateOrderStatus.
func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrEventMalformed) {
			s.logger.Warn("acknowledging undecodable webhook event", zap.Error(err))
			return nil
		}
		return err
	}

	if event.Type != payment.EventCheckoutCompleted {
		s.logger.Debug("ignoring webhook event", zap.String("type", event.Type))
		return nil
	}

	order, err := s.orderRepo.FindByPaymentSession(ctx, event.SessionID)
	if err != nil {
		if isNotFound(err) {
			s.logger.Warn("order not found for completed session", zap.String("session_id", event.SessionID))
			return nil
		}
		return err
	}

	if userID := event.Metadata["userId"]; userID != "" && userID != domain.GuestSentinel {
		if id, err := uuid.Parse(userID); err == nil {
			if _, err := s.carts.ClearCart(ctx, domain.UserIdentity(id, domain.RoleUser)); err != nil {
				return fmt.Errorf("failed to clear cart: %w", err)
			}
		} else {
			s.logger.Warn("webhook carried malformed user id", zap.String("user_id", userID))
		}
	}

	s.sendConfirmation(ctx, order)

	s.logger.Info("payment successful, order processed",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", event.SessionID),
	)
	return nil
}

func (s *checkoutService) sendConfirmation(ctx context.Context, order *domain.Order) {
	if order.UserID == nil {
		return
	}

	user, err := s.userRepo.FindByID(ctx, *order.UserID)
	if err != nil {
		s.logger.Warn("could not resolve order owner for confirmation",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}
	if user.Email == "" {
		return
	}

	if err := s.notifier.SendOrderConfirmation(ctx, user.Email, order); err != nil {
		s.logger.Warn("failed to send order confirmation",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

// MinorUnits converts a decimal price to the currency's smallest unit
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
