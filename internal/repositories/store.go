package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that take part in multi-step workflows and
// lets them run inside one transaction.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	// WithinTx runs fn against repositories bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// GORMStore is the GORM implementation of Store.
type GORMStore struct {
	db       *gorm.DB
	products *GORMProductRepository
	carts    *GORMCartRepository
	orders   *GORMOrderRepository
}

// NewGORMStore creates a Store over db.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{
		db:       db,
		products: NewGORMProductRepository(db),
		carts:    NewGORMCartRepository(db),
		orders:   NewGORMOrderRepository(db),
	}
}

func (s *GORMStore) Products() ProductRepository { return s.products }

func (s *GORMStore) Carts() CartRepository { return s.carts }

func (s *GORMStore) Orders() OrderRepository { return s.orders }

// WithinTx implements Store.
func (s *GORMStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	})
}
