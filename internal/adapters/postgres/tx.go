package postgres

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// txManager opens one storage transaction and threads it through the
// context so repository calls made inside fn join it. Nested InTx calls
// reuse the outer transaction.
type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *txManager {
	return &txManager{db: db}
}

func (m *txManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom returns the ambient transaction when present, else the shared handle.
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
