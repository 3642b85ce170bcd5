package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrCartItemNotFound = fmt.Errorf("cart item %w", domain.ErrNotFound)

// CartService defines the interface for cart business logic. Every
// operation is scoped to one identity, a user or a guest session.
type CartService interface {
	GetCart(ctx context.Context, identity domain.Identity) (*domain.Cart, error)
	AddToCart(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, identity domain.Identity, productID uuid.UUID) (*domain.Cart, error)
	ClearCart(ctx context.Context, identity domain.Identity) (*domain.Cart, error)
	// MergeGuestCart folds the session's lines into the user's cart, summing
	// quantities of shared products, then empties the session cart.
	MergeGuestCart(ctx context.Context, sessionToken string, userID uuid.UUID) error
}

type cartService struct {
	userCarts   repository.CartRepository
	guestCarts  repository.CartRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	userCarts repository.CartRepository,
	guestCarts repository.CartRepository,
	productRepo repository.ProductRepository,
	logger *zap.Logger,
) CartService {
	return &cartService{
		userCarts:   userCarts,
		guestCarts:  guestCarts,
		productRepo: productRepo,
		logger:      logger,
	}
}

func (s *cartService) store(identity domain.Identity) repository.CartRepository {
	if identity.IsGuest() {
		return s.guestCarts
	}
	return s.userCarts
}

func (s *cartService) GetCart(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	store := s.store(identity)

	lines, err := store.Lines(ctx, identity.Key())
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return domain.NewCart(identity, nil), nil
	}

	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			// the product was deleted after it was carted
			if err := store.Remove(ctx, identity.Key(), line.ProductID); err != nil {
				s.logger.Warn("failed to prune stale cart line",
					zap.String("product_id", line.ProductID.String()), zap.Error(err))
			}
			continue
		}
		items = append(items, domain.CartItem{
			Product: domain.CartItemProduct{
				ID:     product.ID,
				Name:   product.Name,
				Price:  product.Price,
				Images: product.Images,
				Stock:  product.Stock,
			},
			Quantity: line.Quantity,
		})
	}

	return domain.NewCart(identity, items), nil
}

func (s *cartService) AddToCart(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	current, err := s.lineQuantity(ctx, identity, productID)
	if err != nil {
		return nil, err
	}
	if current+quantity > product.Stock {
		return nil, insufficientStock(product, current+quantity)
	}

	if err := s.store(identity).AddQuantity(ctx, identity.Key(), productID, quantity); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, identity)
}

func (s *cartService) UpdateCartItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > 0 && quantity > product.Stock {
		return nil, insufficientStock(product, quantity)
	}

	current, err := s.lineQuantity(ctx, identity, productID)
	if err != nil {
		return nil, err
	}
	if current == 0 {
		return nil, ErrCartItemNotFound
	}

	store := s.store(identity)
	if quantity <= 0 {
		err = store.Remove(ctx, identity.Key(), productID)
	} else {
		err = store.SetQuantity(ctx, identity.Key(), productID, quantity)
	}
	if err != nil {
		return nil, err
	}

	return s.GetCart(ctx, identity)
}

func (s *cartService) RemoveFromCart(ctx context.Context, identity domain.Identity, productID uuid.UUID) (*domain.Cart, error) {
	if err := s.store(identity).Remove(ctx, identity.Key(), productID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, identity)
}

func (s *cartService) ClearCart(ctx context.Context, identity domain.Identity) (*domain.Cart, error) {
	if err := s.store(identity).Clear(ctx, identity.Key()); err != nil {
		return nil, err
	}
	return domain.NewCart(identity, nil), nil
}

// MergeGuestCart does not re-check stock; checkout and fulfillment do.
func (s *cartService) MergeGuestCart(ctx context.Context, sessionToken string, userID uuid.UUID) error {
	if sessionToken == "" {
		return nil
	}

	lines, err := s.guestCarts.Lines(ctx, sessionToken)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	owner := userID.String()
	for _, line := range lines {
		err := s.userCarts.AddQuantity(ctx, owner, line.ProductID, line.Quantity)
		if errors.Is(err, repository.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to merge guest cart: %w", err)
		}
	}

	if err := s.guestCarts.Clear(ctx, sessionToken); err != nil {
		return err
	}

	s.logger.Info("guest cart merged",
		zap.String("user_id", owner),
		zap.Int("lines", len(lines)),
	)
	return nil
}

func (s *cartService) lineQuantity(ctx context.Context, identity domain.Identity, productID uuid.UUID) (int, error) {
	lines, err := s.store(identity).Lines(ctx, identity.Key())
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		if line.ProductID == productID {
			return line.Quantity, nil
		}
	}
	return 0, nil
}

func insufficientStock(product *domain.Product, requested int) error {
	return fmt.Errorf("%w: %s has %d available, %d requested",
		domain.ErrInsufficientStock, product.Name, product.Stock, requested)
}
