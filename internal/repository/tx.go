package repository

import (
	"context"
	"database/sql"

	"storefront/internal/database"
)

// TxRepos are repositories bound to a single transaction
type TxRepos struct {
	Orders   OrderRepository
	Products ProductRepository
}

// TxManager runs a unit of work atomically
type TxManager interface {
	WithinTx(ctx context.Context, fn func(repos TxRepos) error) error
}

type txManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) WithinTx(ctx context.Context, fn func(repos TxRepos) error) error {
	return database.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		return fn(TxRepos{
			Orders:   NewOrderRepository(tx),
			Products: NewProductRepository(tx),
		})
	})
}
