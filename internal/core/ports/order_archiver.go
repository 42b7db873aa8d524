package ports

import (
	"context"

	"mensajero/internal/core/domain/model/order"
)

// OrderArchiver hands a delivered order to long-term history.
// Implementations must tolerate receiving the same order more than once.
type OrderArchiver interface {
	Archive(ctx context.Context, snapshot order.Snapshot) error
}
