package order

import (
	"errors"
	"math"

	"mensajero/internal/pkg/errs"
)

// RouteQuote carries the road distance and price computed by the routing
// provider. The order stores it without interpreting it.
type RouteQuote struct {
	distanceKm float64
	price      float64
}

func NewRouteQuote(distanceKm, price float64) (RouteQuote, error) {
	if err := errors.Join(
		validateNonNegative("roadDistanceKm", distanceKm),
		validateNonNegative("deliveryPrice", price),
	); err != nil {
		return RouteQuote{}, err
	}

	return RouteQuote{distanceKm: distanceKm, price: price}, nil
}

func (q RouteQuote) DistanceKm() float64 {
	return q.distanceKm
}

func (q RouteQuote) Price() float64 {
	return q.price
}

func validateNonNegative(param string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return errs.NewValueIsOutOfRangeError(param, v, 0, math.MaxFloat64)
	}
	return nil
}
