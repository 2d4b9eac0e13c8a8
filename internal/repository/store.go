package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share a connection or transaction.
type Store interface {
	Users() UserRepository
	Properties() PropertyRepository
	// WithTransaction runs fn inside a database transaction. The Store passed
	// to fn is bound to the transaction; returning an error rolls it back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type store struct {
	db         *gorm.DB
	users      UserRepository
	properties PropertyRepository
}

// NewStore creates a GORM-backed Store.
func NewStore(db *gorm.DB) Store {
	return &store{
		db:         db,
		users:      NewUserRepository(db),
		properties: NewPropertyRepository(db),
	}
}

func (s *store) Users() UserRepository { return s.users }

func (s *store) Properties() PropertyRepository { return s.properties }

// WithTransaction executes a function within a database transaction.
func (s *store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}
