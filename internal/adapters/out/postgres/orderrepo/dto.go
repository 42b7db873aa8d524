// Package orderrepo persists order aggregates in PostgreSQL through gorm.
package orderrepo

import (
	"encoding/json"
	"time"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row of the orders table. Seq is filled by the database and
// gives listing its insertion order.
type OrderDTO struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Seq            int64             `gorm:"autoIncrement;uniqueIndex"`
	Items          []json.RawMessage `gorm:"serializer:json;type:jsonb"`
	Pickup         LocationDTO       `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff        LocationDTO       `gorm:"embedded;embeddedPrefix:dropoff_"`
	Status         int               `gorm:"index;not null"`
	CourierID      *uuid.UUID        `gorm:"type:uuid;index"`
	RoadDistanceKm *float64
	DeliveryPrice  *float64
	CreatedAt      time.Time  `gorm:"not null"`
	ArchivedAt     *time.Time `gorm:"index"`
	Version        int64      `gorm:"not null"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// LocationDTO is an embedded latitude/longitude pair.
type LocationDTO struct {
	Lat float64 `gorm:"type:double precision;not null"`
	Lon float64 `gorm:"type:double precision;not null"`
}

func fromDomain(aggregate *order.Order) OrderDTO {
	s := aggregate.Snapshot()

	dto := OrderDTO{
		ID:         s.ID.Raw(),
		Items:      s.Items,
		Pickup:     LocationDTO{Lat: s.Pickup.Latitude(), Lon: s.Pickup.Longitude()},
		Dropoff:    LocationDTO{Lat: s.Dropoff.Latitude(), Lon: s.Dropoff.Longitude()},
		Status:     int(s.Status),
		CreatedAt:  s.CreatedAt,
		ArchivedAt: s.ArchivedAt,
		Version:    s.Version,
	}

	if s.CourierID != nil {
		raw := s.CourierID.Raw()
		dto.CourierID = &raw
	}

	if s.Route != nil {
		km, price := s.Route.DistanceKm(), s.Route.Price()
		dto.RoadDistanceKm = &km
		dto.DeliveryPrice = &price
	}

	return dto
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromRaw(dto.ID)
	if err != nil {
		return nil, err
	}

	pickup, err := kernel.NewGeoPoint(dto.Pickup.Lat, dto.Pickup.Lon)
	if err != nil {
		return nil, err
	}

	dropoff, err := kernel.NewGeoPoint(dto.Dropoff.Lat, dto.Dropoff.Lon)
	if err != nil {
		return nil, err
	}

	snap := order.Snapshot{
		ID:         id,
		Items:      dto.Items,
		Pickup:     pickup,
		Dropoff:    dropoff,
		Status:     order.Status(dto.Status),
		CreatedAt:  dto.CreatedAt,
		ArchivedAt: dto.ArchivedAt,
		Version:    dto.Version,
	}

	if dto.CourierID != nil {
		courierID, courierErr := kernel.UUIDFromRaw(*dto.CourierID)
		if courierErr != nil {
			return nil, courierErr
		}
		snap.CourierID = &courierID
	}

	if dto.RoadDistanceKm != nil && dto.DeliveryPrice != nil {
		quote, quoteErr := order.NewRouteQuote(*dto.RoadDistanceKm, *dto.DeliveryPrice)
		if quoteErr != nil {
			return nil, quoteErr
		}
		snap.Route = &quote
	}

	return order.RestoreOrder(snap)
}
