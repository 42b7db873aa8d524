package dynamo

import (
	"encoding/json"
	"time"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
)

const (
	attrOrderID    = "order_id"
	attrSeq        = "seq"
	attrStatus     = "status"
	attrVersion    = "version"
	attrCourierID  = "courier_id"
	attrArchivedAt = "archived_at"
)

// orderItem is the stored shape. Seq comes from the table's counter item on
// Add and listings sort by it.
type orderItem struct {
	OrderID        string     `dynamodbav:"order_id"`
	Seq            int64      `dynamodbav:"seq"`
	Items          []string   `dynamodbav:"items,omitempty"`
	PickupLat      float64    `dynamodbav:"pickup_lat"`
	PickupLon      float64    `dynamodbav:"pickup_lon"`
	DropoffLat     float64    `dynamodbav:"dropoff_lat"`
	DropoffLon     float64    `dynamodbav:"dropoff_lon"`
	Status         int        `dynamodbav:"status"`
	CourierID      *string    `dynamodbav:"courier_id,omitempty"`
	RoadDistanceKm *float64   `dynamodbav:"road_distance_km,omitempty"`
	DeliveryPrice  *float64   `dynamodbav:"delivery_price,omitempty"`
	CreatedAt      time.Time  `dynamodbav:"created_at"`
	ArchivedAt     *time.Time `dynamodbav:"archived_at,omitempty"`
	Version        int64      `dynamodbav:"version"`
}

func toItem(aggregate *order.Order, seq int64) orderItem {
	s := aggregate.Snapshot()

	item := orderItem{
		OrderID:    s.ID.String(),
		Seq:        seq,
		PickupLat:  s.Pickup.Latitude(),
		PickupLon:  s.Pickup.Longitude(),
		DropoffLat: s.Dropoff.Latitude(),
		DropoffLon: s.Dropoff.Longitude(),
		Status:     int(s.Status),
		CreatedAt:  s.CreatedAt,
		ArchivedAt: s.ArchivedAt,
		Version:    s.Version,
	}

	for _, raw := range s.Items {
		item.Items = append(item.Items, string(raw))
	}

	if s.CourierID != nil {
		id := s.CourierID.String()
		item.CourierID = &id
	}

	if s.Route != nil {
		km, price := s.Route.DistanceKm(), s.Route.Price()
		item.RoadDistanceKm = &km
		item.DeliveryPrice = &price
	}

	return item
}

func fromItem(item orderItem) (*order.Order, error) {
	id, err := kernel.UUIDFromString(item.OrderID)
	if err != nil {
		return nil, err
	}

	pickup, err := kernel.NewGeoPoint(item.PickupLat, item.PickupLon)
	if err != nil {
		return nil, err
	}

	dropoff, err := kernel.NewGeoPoint(item.DropoffLat, item.DropoffLon)
	if err != nil {
		return nil, err
	}

	snapshot := order.Snapshot{
		ID:         id,
		Pickup:     pickup,
		Dropoff:    dropoff,
		Status:     order.Status(item.Status),
		CreatedAt:  item.CreatedAt,
		ArchivedAt: item.ArchivedAt,
		Version:    item.Version,
	}

	for _, doc := range item.Items {
		snapshot.Items = append(snapshot.Items, json.RawMessage(doc))
	}

	if item.CourierID != nil {
		courier, err := kernel.UUIDFromString(*item.CourierID)
		if err != nil {
			return nil, err
		}
		snapshot.CourierID = &courier
	}

	if item.RoadDistanceKm != nil && item.DeliveryPrice != nil {
		route, err := order.NewRouteQuote(*item.RoadDistanceKm, *item.DeliveryPrice)
		if err != nil {
			return nil, err
		}
		snapshot.Route = &route
	}

	return order.RestoreOrder(snapshot)
}
