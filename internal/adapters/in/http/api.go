package http

import (
	"encoding/json"
	"time"

	"mensajero/internal/core/application/usecases/queries"
	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/pkg/errs"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Location struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

// toGeoPoint reports a missing location or coordinate under field.
func (l *Location) toGeoPoint(field string) (kernel.GeoPoint, error) {
	if l == nil {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError(field)
	}
	if l.Lat == nil {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError(joinField(field, "lat"))
	}
	if l.Lon == nil {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError(joinField(field, "lon"))
	}
	return kernel.NewGeoPoint(*l.Lat, *l.Lon)
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// NewOrder is the create-order body. The id is chosen by the creator and is
// parsed by kernel.UUIDFromString, so every form it accepts is valid here.
type NewOrder struct {
	ID      string            `json:"id" validate:"required"`
	Items   []json.RawMessage `json:"items"`
	Pickup  *Location         `json:"pickup" validate:"required"`
	Dropoff *Location         `json:"dropoff" validate:"required"`
}

type ClaimOrder struct {
	CourierID string `json:"courierId" validate:"required"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Order struct {
	ID             string            `json:"id"`
	Items          []json.RawMessage `json:"items"`
	Pickup         Point             `json:"pickup"`
	Dropoff        Point             `json:"dropoff"`
	Status         string            `json:"status"`
	CourierID      *string           `json:"courierId,omitempty"`
	RoadDistanceKm *float64          `json:"roadDistanceKm,omitempty"`
	DeliveryPrice  *float64          `json:"deliveryPrice,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	ArchivedAt     *time.Time        `json:"archivedAt,omitempty"`
}

type LocationReport struct {
	Status                  string  `json:"status"`
	DistanceToPickupMeters  float64 `json:"distanceToPickupMeters"`
	DistanceToDropoffMeters float64 `json:"distanceToDropoffMeters"`
	Transitioned            bool    `json:"transitioned"`
}

func toPoint(p kernel.GeoPoint) Point {
	return Point{Lat: p.Latitude(), Lon: p.Longitude()}
}

func toOrder(r queries.OrderResponse) Order {
	o := Order{
		ID:             r.ID.String(),
		Items:          r.Items,
		Pickup:         toPoint(r.Pickup),
		Dropoff:        toPoint(r.Dropoff),
		Status:         r.Status.String(),
		RoadDistanceKm: r.RoadDistanceKm,
		DeliveryPrice:  r.DeliveryPrice,
		CreatedAt:      r.CreatedAt,
		ArchivedAt:     r.ArchivedAt,
	}
	if o.Items == nil {
		o.Items = []json.RawMessage{}
	}
	if r.CourierID != nil {
		id := r.CourierID.String()
		o.CourierID = &id
	}
	return o
}

func toOrderFromAggregate(o *order.Order) Order {
	return toOrder(queries.NewOrderResponse(o))
}

func toLocationReport(r order.LocationReport) LocationReport {
	return LocationReport{
		Status:                  r.Status.String(),
		DistanceToPickupMeters:  r.DistanceToPickupMeters,
		DistanceToDropoffMeters: r.DistanceToDropoffMeters,
		Transitioned:            r.Transitioned,
	}
}
