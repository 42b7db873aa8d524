package commands

import (
	"errors"
	"fmt"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/pkg/guard"
)

var ErrClaimOrderCommandIsNotConstructed = errors.New(
	"ClaimOrderCommand must be created via NewClaimOrderCommand constructor",
)

// ClaimOrderCommand asks for an Available order to be assigned to a courier.
type ClaimOrderCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID

	guard guard.ConstructorGuard
}

func NewClaimOrderCommand(orderID, courierID kernel.UUID) (ClaimOrderCommand, error) {
	cmd := ClaimOrderCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCourierID(courierID),
	); err != nil {
		return ClaimOrderCommand{}, err
	}

	return cmd, nil
}

func (c ClaimOrderCommand) Validate() error {
	return c.guard.Validate(ErrClaimOrderCommandIsNotConstructed)
}

func (c ClaimOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ClaimOrderCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c *ClaimOrderCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("orderId: %w", err)
	}
	c.orderID = id
	return nil
}

func (c *ClaimOrderCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("courierId: %w", err)
	}
	c.courierID = id
	return nil
}
