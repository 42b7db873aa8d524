package ports

import (
	"context"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
)

// RouteQuoter prices the road trip between pickup and drop-off.
type RouteQuoter interface {
	Quote(ctx context.Context, pickup, dropoff kernel.GeoPoint) (order.RouteQuote, error)
}
