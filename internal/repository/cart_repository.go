package repository

import (
	"context"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// CartRepository stores the lines of one cart per owner key. User carts and
// guest carts implement it over different backends.
type CartRepository interface {
	Lines(ctx context.Context, owner string) ([]domain.CartLine, error)
	// SetQuantity creates the line or overwrites its quantity.
	SetQuantity(ctx context.Context, owner string, productID uuid.UUID, quantity int) error
	// AddQuantity creates the line or adds delta to its quantity.
	AddQuantity(ctx context.Context, owner string, productID uuid.UUID, delta int) error
	Remove(ctx context.Context, owner string, productID uuid.UUID) error
	Clear(ctx context.Context, owner string) error
}

type userCartRepository struct {
	db DBTX
}

// NewUserCartRepository returns the Postgres-backed cart store for
// registered users. The owner key is the user id.
func NewUserCartRepository(db DBTX) CartRepository {
	return &userCartRepository{db: db}
}

func parseOwner(owner string) (uuid.UUID, error) {
	userID, err := uuid.Parse(owner)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid cart owner %q: %w", owner, err)
	}
	return userID, nil
}

// ensureCart returns the user's cart id, creating the cart on first access
func (r *userCartRepository) ensureCart(ctx context.Context, owner string) (uuid.UUID, error) {
	userID, err := parseOwner(owner)
	if err != nil {
		return uuid.Nil, err
	}

	query := `
		INSERT INTO carts (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`

	var cartID uuid.UUID
	if err := r.db.QueryRowContext(ctx, query, uuid.New(), userID).Scan(&cartID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to ensure cart: %w", err)
	}
	return cartID, nil
}

func (r *userCartRepository) Lines(ctx context.Context, owner string) ([]domain.CartLine, error) {
	cartID, err := r.ensureCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY added_at, product_id`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return lines, nil
}

func (r *userCartRepository) SetQuantity(ctx context.Context, owner string, productID uuid.UUID, quantity int) error {
	return r.upsert(ctx, owner, productID, quantity,
		`ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`)
}

func (r *userCartRepository) AddQuantity(ctx context.Context, owner string, productID uuid.UUID, delta int) error {
	return r.upsert(ctx, owner, productID, delta,
		`ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`)
}

func (r *userCartRepository) upsert(ctx context.Context, owner string, productID uuid.UUID, quantity int, onConflict string) error {
	cartID, err := r.ensureCart(ctx, owner)
	if err != nil {
		return err
	}

	query := `INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3) ` + onConflict
	if _, err := r.db.ExecContext(ctx, query, cartID, productID, quantity); err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to write cart item: %w", err)
	}
	return nil
}

func (r *userCartRepository) Remove(ctx context.Context, owner string, productID uuid.UUID) error {
	userID, err := parseOwner(owner)
	if err != nil {
		return err
	}

	query := `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.product_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (r *userCartRepository) Clear(ctx context.Context, owner string) error {
	userID, err := parseOwner(owner)
	if err != nil {
		return err
	}

	query := `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
