package commands

import (
	"errors"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/pkg/guard"
)

var ErrMarkInTransitCommandIsNotConstructed = errors.New(
	"MarkInTransitCommand must be created via NewMarkInTransitCommand constructor",
)

// MarkInTransitCommand records that the courier picked the order up.
type MarkInTransitCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewMarkInTransitCommand(orderID kernel.UUID) (MarkInTransitCommand, error) {
	if err := orderID.Validate(); err != nil {
		return MarkInTransitCommand{}, err
	}

	return MarkInTransitCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c MarkInTransitCommand) Validate() error {
	return c.guard.Validate(ErrMarkInTransitCommandIsNotConstructed)
}

func (c MarkInTransitCommand) OrderID() kernel.UUID {
	return c.orderID
}
