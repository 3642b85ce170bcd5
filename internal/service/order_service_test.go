package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderFixture struct {
	svc      OrderService
	orders   *mockOrderRepository
	products *mockProductRepository
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:   newMockOrderRepository(),
		products: newMockProductRepository(),
	}
	tx := &mockTxManager{orders: f.orders, products: f.products}
	f.svc = NewOrderService(f.orders, tx, zap.NewNop())
	return f
}

type orderLine struct {
	stock    int
	quantity int
}

// pendingOrder creates one product per line and a pending order over them
func (f *orderFixture) pendingOrder(t *testing.T, owner *uuid.UUID, lines ...orderLine) (*domain.Order, []*domain.Product) {
	t.Helper()
	order := &domain.Order{
		ID:             uuid.New(),
		UserID:         owner,
		Status:         domain.OrderStatusPending,
		PaymentSession: "cs_test_" + uuid.NewString(),
		CreatedAt:      time.Now(),
	}
	var products []*domain.Product
	for _, line := range lines {
		p := f.products.add(&domain.Product{Name: "Item", Price: decimal.NewFromInt(1), Stock: line.stock})
		products = append(products, p)
		order.Items = append(order.Items, domain.OrderItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: line.quantity})
	}
	require.NoError(t, f.orders.Create(context.Background(), order))
	return order, products
}

func TestUpdateOrderStatus_DecrementsOnceFromPending(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, products := f.pendingOrder(t, nil, orderLine{stock: 5, quantity: 3})

	updated, err := f.svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusDispatched)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDispatched, updated.Status)
	assert.Equal(t, 2, f.products.stock(products[0].ID))

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, f.products.stock(products[0].ID))

	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, f.products.stock(products[0].ID))
}

func TestUpdateOrderStatus_ReturnToPendingDoesNotDeductAgain(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, products := f.pendingOrder(t, nil, orderLine{stock: 10, quantity: 3})

	for _, next := range []domain.OrderStatus{
		domain.OrderStatusCompleted,
		domain.OrderStatusPending,
		domain.OrderStatusCompleted,
		domain.OrderStatusPending,
		domain.OrderStatusDispatched,
	} {
		updated, err := f.svc.UpdateOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
		assert.True(t, updated.StockDeducted)
	}

	assert.Equal(t, 7, f.products.stock(products[0].ID))
}

func TestUpdateOrderStatus_InsufficientStockLeavesEverythingUnchanged(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, products := f.pendingOrder(t, nil,
		orderLine{stock: 10, quantity: 2},
		orderLine{stock: 1, quantity: 3},
	)

	_, err := f.svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
	assert.False(t, stored.StockDeducted)
	assert.Equal(t, 10, f.products.stock(products[0].ID), "earlier lines are rolled back")
	assert.Equal(t, 1, f.products.stock(products[1].ID))
}

func TestUpdateOrderStatus_Errors(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	_, err := f.svc.UpdateOrderStatus(ctx, uuid.New(), domain.OrderStatusDispatched)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	order, _ := f.pendingOrder(t, nil)
	_, err = f.svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatus("shipped"))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

// Property: stock is consumed exactly once across any status sequence
func TestProperty_StockDecrementedAtMostOnce(t *testing.T) {
	properties := gopter.NewProperties(nil)

	statuses := gen.OneConstOf(domain.OrderStatusPending, domain.OrderStatusDispatched, domain.OrderStatusCompleted)

	properties.Property("stock never drops below stock-quantity and never goes negative", prop.ForAll(
		func(stock int, quantity int, sequence []domain.OrderStatus) bool {
			f := newOrderFixture()
			ctx := context.Background()
			order, products := f.pendingOrder(t, nil, orderLine{stock: stock, quantity: quantity})

			for _, s := range sequence {
				_, _ = f.svc.UpdateOrderStatus(ctx, order.ID, s)
			}

			after := f.products.stock(products[0].ID)
			if after < 0 {
				return false
			}
			return after == stock || after == stock-quantity
		},
		gen.IntRange(0, 10),
		gen.IntRange(1, 10),
		gen.SliceOfN(6, statuses),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestGetOrderByID_Visibility(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	owner := uuid.New()
	order, _ := f.pendingOrder(t, &owner)

	got, err := f.svc.GetOrderByID(ctx, domain.UserIdentity(owner, domain.RoleUser), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetOrderByID(ctx, domain.UserIdentity(uuid.New(), domain.RoleUser), order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.GetOrderByID(ctx, domain.GuestIdentity("session"), order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.GetOrderByID(ctx, domain.UserIdentity(uuid.New(), domain.RoleAdmin), order.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetOrderByID(ctx, domain.UserIdentity(owner, domain.RoleUser), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetUserOrders(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	owner := uuid.New()
	f.pendingOrder(t, &owner)
	f.pendingOrder(t, &owner)
	f.pendingOrder(t, nil)

	orders, err := f.svc.GetUserOrders(ctx, domain.UserIdentity(owner, domain.RoleUser))
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = f.svc.GetUserOrders(ctx, domain.GuestIdentity("session"))
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestDeleteOrder_AnyStatusWithoutRestock(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, products := f.pendingOrder(t, nil, orderLine{stock: 4, quantity: 4})

	_, err := f.svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(ctx, order.ID))
	assert.Equal(t, 0, f.products.stock(products[0].ID))
	assert.ErrorIs(t, f.svc.DeleteOrder(ctx, order.ID), domain.ErrNotFound)
}
