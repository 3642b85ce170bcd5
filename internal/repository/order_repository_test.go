package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         "Order Tester",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewUserRepository(testDB).Create(context.Background(), user))
	return user
}

func newPendingOrder(userID *uuid.UUID, createdAt time.Time, items ...*domain.Product) *domain.Order {
	order := &domain.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         domain.OrderStatusPending,
		PaymentSession: "cs_test_" + uuid.NewString(),
		Tax:            decimal.Zero,
		Shipping:       decimal.Zero,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	subtotal := decimal.Zero
	for _, p := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  2,
			Image:     p.FirstImage(),
		})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(2)))
	}
	order.Subtotal = subtotal
	order.Total = subtotal
	return order
}

func TestOrderRepository_CreateAndFindBySession(t *testing.T) {
	db := requireDB(t)
	fixture := newCatalogFixture(t, db)
	product := fixture.product(t, db, "10.00", 5)
	user := newTestUser(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := newPendingOrder(&user.ID, time.Now().UTC(), product)
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.FindByPaymentSession(ctx, order.PaymentSession)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, domain.OrderStatusPending, found.Status)
	require.Len(t, found.Items, 1)
	assert.Equal(t, product.Name, found.Items[0].Name)
	assert.Equal(t, "https://img.example.com/a.png", found.Items[0].Image)
	require.NotNil(t, found.Items[0].Product)
	assert.Equal(t, product.ID, found.Items[0].Product.ID)

	err = repo.Create(ctx, newPendingOrderWithSession(order.PaymentSession))
	assert.ErrorIs(t, err, ErrDuplicatePaymentSession)
}

func newPendingOrderWithSession(session string) *domain.Order {
	order := newPendingOrder(nil, time.Now().UTC())
	order.PaymentSession = session
	return order
}

func TestOrderRepository_SnapshotSurvivesProductDelete(t *testing.T) {
	db := requireDB(t)
	fixture := newCatalogFixture(t, db)
	product := fixture.product(t, db, "4.25", 5)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := newPendingOrder(nil, time.Now().UTC(), product)
	require.NoError(t, repo.Create(ctx, order))
	require.NoError(t, NewProductRepository(db).Delete(ctx, product.ID))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Nil(t, found.Items[0].Product)
	assert.True(t, decimal.RequireFromString("4.25").Equal(found.Items[0].Price))
	assert.True(t, found.IsGuest())
}

func TestOrderRepository_ListByUserNewestFirst(t *testing.T) {
	db := requireDB(t)
	user := newTestUser(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	older := newPendingOrder(&user.ID, base)
	newer := newPendingOrder(&user.ID, base.Add(time.Minute))
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	orders, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestOrderRepository_UpdateAndDelete(t *testing.T) {
	db := requireDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := newPendingOrder(nil, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusDispatched))
	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDispatched, found.Status)

	assert.False(t, found.StockDeducted)

	require.NoError(t, repo.MarkStockDeducted(ctx, order.ID))
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPending))
	found, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, found.Status)
	assert.True(t, found.StockDeducted, "flag survives a move back to pending")

	require.NoError(t, repo.Delete(ctx, order.ID))
	assert.ErrorIs(t, repo.Delete(ctx, order.ID), ErrOrderNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusCompleted), domain.ErrNotFound)
	assert.ErrorIs(t, repo.MarkStockDeducted(ctx, order.ID), domain.ErrNotFound)
}

func TestTxManager_RollsBackPartialDecrements(t *testing.T) {
	db := requireDB(t)
	fixture := newCatalogFixture(t, db)
	plenty := fixture.product(t, db, "1.00", 10)
	scarce := fixture.product(t, db, "1.00", 1)
	ctx := context.Background()

	errStop := errors.New("stop")
	err := NewTxManager(db).WithinTx(ctx, func(repos TxRepos) error {
		ok, err := repos.Products.DecrementStock(ctx, plenty.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repos.Products.DecrementStock(ctx, scarce.ID, 3)
		require.NoError(t, err)
		require.False(t, ok)
		return errStop
	})
	assert.ErrorIs(t, err, errStop)

	after, err := NewProductRepository(db).FindByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, after.Stock)
}
