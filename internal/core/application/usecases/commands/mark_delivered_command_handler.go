package commands

import (
	"context"

	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/ports"
)

// MarkDeliveredCommandHandler moves an InTransit order to Delivered.
//
// The transition is committed on its own. Archival is a separate step
// (ArchiveOrderCommandHandler) whose failure never undoes the delivery.
type MarkDeliveredCommandHandler struct {
	mutator orderMutator
}

func NewMarkDeliveredCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	locks OrderLocker,
) MarkDeliveredCommandHandler {
	return MarkDeliveredCommandHandler{mutator: newOrderMutator(uowFactory, locks)}
}

func (h MarkDeliveredCommandHandler) Handle(ctx context.Context, cmd MarkDeliveredCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.mutator.mutate(ctx, cmd.OrderID(), func(o *order.Order) (bool, error) {
		return true, o.MarkDelivered()
	})
}
