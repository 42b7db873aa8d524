package commands

import (
	"errors"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/pkg/guard"
)

var ErrMarkDeliveredCommandIsNotConstructed = errors.New(
	"MarkDeliveredCommand must be created via NewMarkDeliveredCommand constructor",
)

// MarkDeliveredCommand records that the courier dropped the order off.
type MarkDeliveredCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewMarkDeliveredCommand(orderID kernel.UUID) (MarkDeliveredCommand, error) {
	if err := orderID.Validate(); err != nil {
		return MarkDeliveredCommand{}, err
	}

	return MarkDeliveredCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c MarkDeliveredCommand) Validate() error {
	return c.guard.Validate(ErrMarkDeliveredCommandIsNotConstructed)
}

func (c MarkDeliveredCommand) OrderID() kernel.UUID {
	return c.orderID
}
