package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
)

const DefaultCacheTTL = 24 * time.Hour

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DistanceSource reports the road distance between two points. Client is one.
type DistanceSource interface {
	DistanceKm(ctx context.Context, pickup, dropoff kernel.GeoPoint) (float64, error)
}

// cachedRoute holds only the distance; prices are computed on every call so
// a fare change applies immediately.
type cachedRoute struct {
	DistanceKm float64 `json:"distanceKm"`
}

// CachedQuoter implements ports.RouteQuoter by remembering road distances per
// pickup/drop-off pair and pricing them with its own Pricing. Cache errors are
// logged and the call falls through to the source.
type CachedQuoter struct {
	source  DistanceSource
	pricing Pricing
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
}

func NewCachedQuoter(
	source DistanceSource,
	pricing Pricing,
	cache Cache,
	ttl time.Duration,
	logger *slog.Logger,
) *CachedQuoter {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedQuoter{
		source:  source,
		pricing: pricing,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With("component", "CachedQuoter"),
	}
}

func (q *CachedQuoter) Quote(ctx context.Context, pickup, dropoff kernel.GeoPoint) (order.RouteQuote, error) {
	km, err := q.distanceKm(ctx, pickup, dropoff)
	if err != nil {
		return order.RouteQuote{}, err
	}
	return order.NewRouteQuote(km, q.pricing.Price(km))
}

func (q *CachedQuoter) distanceKm(ctx context.Context, pickup, dropoff kernel.GeoPoint) (float64, error) {
	key := cacheKey(pickup, dropoff)

	raw, ok, err := q.cache.Get(ctx, key)
	switch {
	case err != nil:
		q.logger.WarnContext(ctx, "Route cache read failed", "key", key, "error", err)
	case ok:
		var hit cachedRoute
		if err := json.Unmarshal(raw, &hit); err == nil && hit.DistanceKm >= 0 && !math.IsInf(hit.DistanceKm, 0) {
			return hit.DistanceKm, nil
		}
		q.logger.WarnContext(ctx, "Discarding malformed cached route", "key", key)
	}

	km, err := q.source.DistanceKm(ctx, pickup, dropoff)
	if err != nil {
		return 0, err
	}

	value, err := json.Marshal(cachedRoute{DistanceKm: km})
	if err == nil {
		err = q.cache.Set(ctx, key, value, q.ttl)
	}
	if err != nil {
		q.logger.WarnContext(ctx, "Route cache write failed", "key", key, "error", err)
	}

	return km, nil
}

// cacheKey rounds to 5 decimals, about a metre, so jitter in client
// coordinates still hits.
func cacheKey(pickup, dropoff kernel.GeoPoint) string {
	return fmt.Sprintf("route:%.5f,%.5f:%.5f,%.5f",
		pickup.Latitude(), pickup.Longitude(), dropoff.Latitude(), dropoff.Longitude())
}
