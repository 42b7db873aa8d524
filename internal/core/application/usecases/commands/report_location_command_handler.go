package commands

import (
	"context"

	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/domain/services"
	"mensajero/internal/core/ports"
)

// ReportLocationCommandHandler measures a courier ping against the order's
// pickup and drop-off and applies the geofence transition, if any.
//
// Only an unknown order id is an error. A ping that matches no rule is a
// pure read and writes nothing.
//
// Example:
//
//	report, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	if report.Transitioned && report.Status == order.Delivered {
//	    // start archival
//	}
type ReportLocationCommandHandler struct {
	mutator orderMutator
	fence   services.Geofence
}

func NewReportLocationCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	locks OrderLocker,
	fence services.Geofence,
) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		mutator: newOrderMutator(uowFactory, locks),
		fence:   fence,
	}
}

func (h ReportLocationCommandHandler) Handle(
	ctx context.Context,
	cmd ReportLocationCommand,
) (order.LocationReport, error) {
	if err := cmd.Validate(); err != nil {
		return order.LocationReport{}, err
	}

	var report order.LocationReport
	_, err := h.mutator.mutate(ctx, cmd.OrderID(), func(o *order.Order) (bool, error) {
		var evalErr error
		report, evalErr = h.fence.Evaluate(o, cmd.Location())
		return report.Transitioned, evalErr
	})
	if err != nil {
		return order.LocationReport{}, err
	}

	return report, nil
}
