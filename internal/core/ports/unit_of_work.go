package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Stores without
// transactions implement Begin, Commit and Rollback as bookkeeping only.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	// Commit returns an error if no transaction is active.
	Commit(ctx context.Context) error

	// Rollback returns an error if no transaction is active, so it is safe
	// to defer after a successful Commit.
	Rollback(ctx context.Context) error

	// OrderRepository is bound to the transaction started by Begin.
	OrderRepository() OrderRepository
}
