// Package ports declares what the order core needs from the outside world:
// a store, a transaction boundary, an archive and a route quoting service.
package ports

import (
	"context"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
)

// OrderRepository is the persistence contract for order aggregates.
type OrderRepository interface {
	// Add stores a new order. Returns errs.ObjectAlreadyExistsError when the id is taken.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update is a compare-and-swap: it applies only while the stored version
	// equals aggregate.ExpectedVersion() and then stores aggregate.Version().
	// Returns errs.ObjectNotFoundError for an unknown id and
	// errs.VersionIsInvalidError when another writer got there first.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get returns errs.ObjectNotFoundError for an unknown id.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListByStatus returns every order in status, in insertion order.
	ListByStatus(ctx context.Context, status order.Status) ([]*order.Order, error)

	// ListDeliveredUnarchived returns up to limit Delivered orders that have no
	// archivedAt yet, oldest first. limit <= 0 means no limit.
	ListDeliveredUnarchived(ctx context.Context, limit int) ([]*order.Order, error)
}
