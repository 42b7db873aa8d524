package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/pkg/errs"
	"mensajero/internal/pkg/guard"
)

// Snapshot is the plain, copyable state of an Order. Stores and transports
// map their own records to and from it.
type Snapshot struct {
	ID         kernel.UUID
	Items      []json.RawMessage
	Pickup     kernel.GeoPoint
	Dropoff    kernel.GeoPoint
	Status     Status
	CourierID  *kernel.UUID
	Route      *RouteQuote
	CreatedAt  time.Time
	ArchivedAt *time.Time
	Version    int64
}

func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:         o.id,
		Items:      o.Items(),
		Pickup:     o.pickup,
		Dropoff:    o.dropoff,
		Status:     o.status,
		CourierID:  o.Courier(),
		Route:      o.RouteQuote(),
		CreatedAt:  o.createdAt,
		ArchivedAt: o.ArchivedAt(),
		Version:    o.version,
	}
}

// RestoreOrder rebuilds a persisted order and checks every aggregate invariant.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		version:     s.Version,
		baseVersion: s.Version,
		guard:       guard.NewConstructorGuard(),
	}

	hasCourier := s.CourierID != nil
	if err := errors.Join(
		o.setID(s.ID),
		o.setItems(s.Items),
		o.setPickup(s.Pickup),
		o.setDropoff(s.Dropoff),
		o.setCreatedAt(s.CreatedAt),
		s.Status.Validate(),
		s.Status.ValidateCanHaveCourier(hasCourier),
		validateRestoredVersion(s.Version),
		validateRestoredArchive(s.Status, s.ArchivedAt),
	); err != nil {
		return nil, err
	}

	if hasCourier {
		if err := s.CourierID.Validate(); err != nil {
			return nil, fmt.Errorf("courierId: %w", err)
		}
		id := *s.CourierID
		o.courierID = &id
	}

	if s.Route != nil {
		q := *s.Route
		o.route = &q
	}

	if s.ArchivedAt != nil {
		at := normalizeTime(*s.ArchivedAt)
		o.archivedAt = &at
	}

	o.status = s.Status
	return o, nil
}

func validateRestoredVersion(v int64) error {
	if v < 1 {
		return errs.NewValueIsOutOfRangeError("version", v, 1, "max int64")
	}
	return nil
}

func validateRestoredArchive(s Status, archivedAt *time.Time) error {
	if archivedAt != nil && s != Delivered {
		return errs.NewValueIsInvalidErrorWithCause(
			"archivedAt",
			fmt.Errorf("%s order cannot be archived", s),
		)
	}
	return nil
}
