package commands

import (
	"errors"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/pkg/guard"
)

var ErrArchiveOrderCommandIsNotConstructed = errors.New(
	"ArchiveOrderCommand must be created via NewArchiveOrderCommand constructor",
)

// ArchiveOrderCommand hands one Delivered order to the archive.
type ArchiveOrderCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewArchiveOrderCommand(orderID kernel.UUID) (ArchiveOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ArchiveOrderCommand{}, err
	}

	return ArchiveOrderCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ArchiveOrderCommand) Validate() error {
	return c.guard.Validate(ErrArchiveOrderCommandIsNotConstructed)
}

func (c ArchiveOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}
