package commands

import (
	"context"

	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/ports"
)

// ClaimOrderCommandHandler assigns an Available order to the first courier
// that asks. Concurrent claims on one order are serialized; every later
// claim fails with errs.TransitionIsInvalidError and changes nothing.
//
// Example:
//
//	handler := NewClaimOrderCommandHandler(uowFactory, keylock.NewStriped(0))
//	claimed, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrTransitionIsInvalid) {
//	    // somebody else was faster
//	}
type ClaimOrderCommandHandler struct {
	mutator orderMutator
}

func NewClaimOrderCommandHandler(uowFactory ports.UnitOfWorkFactory, locks OrderLocker) ClaimOrderCommandHandler {
	return ClaimOrderCommandHandler{mutator: newOrderMutator(uowFactory, locks)}
}

func (h ClaimOrderCommandHandler) Handle(ctx context.Context, cmd ClaimOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.mutator.mutate(ctx, cmd.OrderID(), func(o *order.Order) (bool, error) {
		return true, o.Claim(cmd.CourierID())
	})
}
