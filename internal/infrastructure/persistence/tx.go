package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/siatbridge/backend/internal/domain/shared"
)

type txKey struct{}

// GormTxManager implements shared.TxManager on top of a GORM connection
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTx runs fn inside one database transaction. The transaction handle
// travels in the context, so every repository call made with that context
// joins it.
func (m *GormTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction handle carried by the context, or the
// repository's own connection when no transaction is open
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

var _ shared.TxManager = (*GormTxManager)(nil)
