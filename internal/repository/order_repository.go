package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound           = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrDuplicatePaymentSession = errors.New("order for this payment session already exists")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Create inserts the order and its item snapshots atomically.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// FindByIDForUpdate locks the order row for the enclosing transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByPaymentSession(ctx context.Context, sessionID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	// MarkStockDeducted records that the order's lines have left stock.
	MarkStockDeducted(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT id, user_id, subtotal, tax, shipping, total, status, payment_session_id, stock_deducted, created_at, updated_at
	FROM orders
`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	var userID uuid.NullUUID
	err := row.Scan(
		&order.ID,
		&userID,
		&order.Subtotal,
		&order.Tax,
		&order.Shipping,
		&order.Total,
		&order.Status,
		&order.PaymentSession,
		&order.StockDeducted,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		order.UserID = &userID.UUID
	}
	return order, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return inTx(ctx, r.db, func(db DBTX) error {
		query := `
			INSERT INTO orders (id, user_id, subtotal, tax, shipping, total, status, payment_session_id, stock_deducted, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`

		var userID uuid.NullUUID
		if order.UserID != nil {
			userID = uuid.NullUUID{UUID: *order.UserID, Valid: true}
		}

		_, err := db.ExecContext(ctx, query,
			order.ID,
			userID,
			order.Subtotal,
			order.Tax,
			order.Shipping,
			order.Total,
			order.Status,
			order.PaymentSession,
			order.StockDeducted,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicatePaymentSession
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (id, order_id, product_id, name, price, quantity, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for i := range order.Items {
			item := &order.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.OrderID = order.ID

			if _, err := db.ExecContext(ctx, itemQuery,
				item.ID,
				item.OrderID,
				item.ProductID,
				item.Name,
				item.Price,
				item.Quantity,
				item.Image,
			); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, orderSelect+` WHERE id = $1`, id)
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findOne(ctx, orderSelect+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *orderRepository) FindByPaymentSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	return r.findOne(ctx, orderSelect+` WHERE payment_session_id = $1`, sessionID)
}

func (r *orderRepository) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByUser returns the user's orders, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, orderSelect+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads item snapshots for orders together with the live
// product summary, which is nil once the product is deleted.
func (r *orderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		order.Items = []domain.OrderItem{}
		byID[order.ID] = order
		ids = append(ids, order.ID.String())
	}

	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.name, oi.price, oi.quantity, oi.image,
		       p.id, p.name, p.price, p.images
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.name, oi.id
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item         domain.OrderItem
			productID    uuid.NullUUID
			productName  sql.NullString
			productPrice decimal.NullDecimal
			images       []string
		)
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Quantity,
			&item.Image,
			&productID,
			&productName,
			&productPrice,
			textArray(&images),
		); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		if productID.Valid {
			if images == nil {
				images = []string{}
			}
			item.Product = &domain.ProductSummary{
				ID:     productID.UUID,
				Name:   productName.String,
				Price:  productPrice.Decimal,
				Images: images,
			}
		}

		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) MarkStockDeducted(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET stock_deducted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark order stock deducted: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}

	return nil
}
