package commands

import (
	"context"

	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/ports"
)

// MarkInTransitCommandHandler moves an Assigned order to InTransit.
type MarkInTransitCommandHandler struct {
	mutator orderMutator
}

func NewMarkInTransitCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	locks OrderLocker,
) MarkInTransitCommandHandler {
	return MarkInTransitCommandHandler{mutator: newOrderMutator(uowFactory, locks)}
}

func (h MarkInTransitCommandHandler) Handle(ctx context.Context, cmd MarkInTransitCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.mutator.mutate(ctx, cmd.OrderID(), func(o *order.Order) (bool, error) {
		return true, o.MarkInTransit()
	})
}
