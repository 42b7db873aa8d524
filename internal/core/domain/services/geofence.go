package services

import (
	"errors"
	"math"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/pkg/errs"
)

// ArrivalThresholdMeters is the radius around pickup and drop-off inside
// which a courier counts as arrived.
const ArrivalThresholdMeters = 30.0

// Geofence turns courier location pings into lifecycle transitions.
//
// Rules, applied in order and at most one per ping:
//   - Assigned and within the radius of pickup: move to InTransit
//   - InTransit and within the radius of drop-off: move to Delivered
//
// Any other status is a pure read. The transition itself goes through the
// order's own methods, so the status table stays the single authority.
//
// Example:
//
//	fence := services.NewGeofence()
//	report, err := fence.Evaluate(o, courierPosition)
//	if err != nil {
//	    return err
//	}
//	if report.Transitioned {
//	    // persist o
//	}
type Geofence struct {
	radiusMeters float64
}

// NewGeofence creates a Geofence with ArrivalThresholdMeters.
func NewGeofence() Geofence {
	return Geofence{radiusMeters: ArrivalThresholdMeters}
}

// NewGeofenceWithRadius creates a Geofence with a custom non-negative radius.
func NewGeofenceWithRadius(radiusMeters float64) (Geofence, error) {
	if math.IsNaN(radiusMeters) || radiusMeters < 0 {
		return Geofence{}, errs.NewValueIsOutOfRangeError("radiusMeters", radiusMeters, 0, math.MaxFloat64)
	}
	return Geofence{radiusMeters: radiusMeters}, nil
}

func (g Geofence) RadiusMeters() float64 {
	return g.radiusMeters
}

// Evaluate measures the haversine distance from at to both order points and
// applies the arrival rule for the current status.
func (g Geofence) Evaluate(o *order.Order, at kernel.GeoPoint) (order.LocationReport, error) {
	if err := errors.Join(o.Validate(), at.Validate()); err != nil {
		return order.LocationReport{}, err
	}

	toPickup, err := at.DistanceTo(o.Pickup())
	if err != nil {
		return order.LocationReport{}, err
	}

	toDropoff, err := at.DistanceTo(o.Dropoff())
	if err != nil {
		return order.LocationReport{}, err
	}

	report := order.LocationReport{
		Status:                  o.Status(),
		DistanceToPickupMeters:  toPickup,
		DistanceToDropoffMeters: toDropoff,
	}

	switch {
	case o.Status() == order.Assigned && toPickup <= g.radiusMeters:
		err = o.MarkInTransit()
	case o.Status() == order.InTransit && toDropoff <= g.radiusMeters:
		err = o.MarkDelivered()
	default:
		return report, nil
	}
	if err != nil {
		return order.LocationReport{}, err
	}

	report.Status = o.Status()
	report.Transitioned = true
	return report, nil
}
