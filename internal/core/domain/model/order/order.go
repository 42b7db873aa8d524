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

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created via NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errs.NewValueIsRequiredError("Order must be created via NewOrder or RestoreOrder")

	// ErrOrderIsAlreadyArchived is returned by MarkArchived on an archived order.
	ErrOrderIsAlreadyArchived = errors.New("order is already archived")
)

// Order is the aggregate root of the delivery lifecycle.
//
// Invariants:
//   - id, items, pickup, dropoff and createdAt never change after creation
//   - status only moves forward through the transition table
//   - courierID is set iff status is not Available
//   - archivedAt is only set on a Delivered order
//
// version counts accepted mutations. It starts at 1 and is raised once per
// load, so a store can compare-and-swap on ExpectedVersion.
type Order struct {
	id         kernel.UUID
	items      []json.RawMessage
	pickup     kernel.GeoPoint
	dropoff    kernel.GeoPoint
	status     Status
	courierID  *kernel.UUID
	route      *RouteQuote
	createdAt  time.Time
	archivedAt *time.Time

	version     int64
	baseVersion int64

	guard guard.ConstructorGuard
}

// NewOrder creates an Available order. route may be nil when no quote was obtained.
//
//	o, err := order.NewOrder(id, items, pickup, dropoff, nil, time.Now())
func NewOrder(
	id kernel.UUID,
	items []json.RawMessage,
	pickup, dropoff kernel.GeoPoint,
	route *RouteQuote,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status:      Available,
		version:     1,
		baseVersion: 0,
		guard:       guard.NewConstructorGuard(),
	}

	if route != nil {
		q := *route
		o.route = &q
	}

	if err := errors.Join(
		o.setID(id),
		o.setItems(items),
		o.setPickup(pickup),
		o.setDropoff(dropoff),
		o.setCreatedAt(createdAt),
	); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

// Items returns a copy of the opaque item descriptors.
func (o *Order) Items() []json.RawMessage {
	return cloneItems(o.items)
}

func (o *Order) Pickup() kernel.GeoPoint {
	return o.pickup
}

func (o *Order) Dropoff() kernel.GeoPoint {
	return o.dropoff
}

func (o *Order) Status() Status {
	return o.status
}

// Courier returns the claiming courier, or nil while Available.
func (o *Order) Courier() *kernel.UUID {
	if o.courierID == nil {
		return nil
	}
	id := *o.courierID
	return &id
}

// RouteQuote returns the stored quote, or nil if none was attached.
func (o *Order) RouteQuote() *RouteQuote {
	if o.route == nil {
		return nil
	}
	q := *o.route
	return &q
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) ArchivedAt() *time.Time {
	if o.archivedAt == nil {
		return nil
	}
	t := *o.archivedAt
	return &t
}

func (o *Order) IsArchived() bool {
	return o.archivedAt != nil
}

// Version is the version the order will have once its pending mutation is stored.
func (o *Order) Version() int64 {
	return o.version
}

// ExpectedVersion is the version the store must still hold for an update to apply.
func (o *Order) ExpectedVersion() int64 {
	return o.baseVersion
}

// Claim assigns the order to courierID. Only an Available order can be claimed.
func (o *Order) Claim(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	next, err := o.status.TransitionTo(Assigned)
	if err != nil {
		return err
	}

	o.status = next
	o.courierID = &courierID
	o.bump()
	return nil
}

// MarkInTransit records the pickup. Only an Assigned order can move.
func (o *Order) MarkInTransit() error {
	return o.transition(InTransit)
}

// MarkDelivered records the drop-off. Only an InTransit order can move.
func (o *Order) MarkDelivered() error {
	return o.transition(Delivered)
}

// MarkArchived records that the delivered order reached the archive.
func (o *Order) MarkArchived(at time.Time) error {
	if o.status != Delivered {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s order cannot be archived", o.status),
		)
	}

	if o.archivedAt != nil {
		return ErrOrderIsAlreadyArchived
	}

	if at.IsZero() {
		return errs.NewValueIsRequiredError("archivedAt")
	}

	at = normalizeTime(at)
	o.archivedAt = &at
	o.bump()
	return nil
}

func (o *Order) transition(to Status) error {
	next, err := o.status.TransitionTo(to)
	if err != nil {
		return err
	}

	o.status = next
	o.bump()
	return nil
}

func (o *Order) bump() {
	if o.version == o.baseVersion {
		o.version++
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setItems(items []json.RawMessage) error {
	for i, item := range items {
		if !json.Valid(item) {
			return errs.NewValueIsInvalidErrorWithCause(
				"items",
				fmt.Errorf("item %d is not valid JSON", i),
			)
		}
	}
	o.items = cloneItems(items)
	return nil
}

func (o *Order) setPickup(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("pickup: %w", err)
	}
	o.pickup = p
	return nil
}

func (o *Order) setDropoff(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("dropoff: %w", err)
	}
	o.dropoff = p
	return nil
}

func (o *Order) setCreatedAt(t time.Time) error {
	if t.IsZero() {
		return errs.NewValueIsRequiredError("createdAt")
	}
	o.createdAt = normalizeTime(t)
	return nil
}

// normalizeTime keeps microsecond precision in UTC, which every store can hold.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func cloneItems(items []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		out[i] = append(json.RawMessage(nil), item...)
	}
	return out
}
