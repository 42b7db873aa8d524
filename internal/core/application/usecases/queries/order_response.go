// Package queries contains read-only operations over orders.
package queries

import (
	"encoding/json"
	"time"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
)

// OrderResponse is the read model of an order shared by every query and by
// the transport layer when it echoes a command result.
type OrderResponse struct {
	ID             kernel.UUID
	Items          []json.RawMessage
	Pickup         kernel.GeoPoint
	Dropoff        kernel.GeoPoint
	Status         order.Status
	CourierID      *kernel.UUID
	RoadDistanceKm *float64
	DeliveryPrice  *float64
	CreatedAt      time.Time
	ArchivedAt     *time.Time
}

// NewOrderResponse builds the read model from an aggregate.
func NewOrderResponse(o *order.Order) OrderResponse {
	s := o.Snapshot()
	resp := OrderResponse{
		ID:         s.ID,
		Items:      s.Items,
		Pickup:     s.Pickup,
		Dropoff:    s.Dropoff,
		Status:     s.Status,
		CourierID:  s.CourierID,
		CreatedAt:  s.CreatedAt,
		ArchivedAt: s.ArchivedAt,
	}

	if s.Route != nil {
		km, price := s.Route.DistanceKm(), s.Route.Price()
		resp.RoadDistanceKm = &km
		resp.DeliveryPrice = &price
	}

	return resp
}
