package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand places a new order in Available.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(orderID, items, pickup, dropoff)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	items   []json.RawMessage
	pickup  kernel.GeoPoint
	dropoff kernel.GeoPoint

	guard guard.ConstructorGuard
}

func NewCreateOrderCommand(
	orderID kernel.UUID,
	items []json.RawMessage,
	pickup, dropoff kernel.GeoPoint,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		items: items,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setPickup(pickup),
		cmd.setDropoff(dropoff),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) Items() []json.RawMessage {
	return c.items
}

func (c CreateOrderCommand) Pickup() kernel.GeoPoint {
	return c.pickup
}

func (c CreateOrderCommand) Dropoff() kernel.GeoPoint {
	return c.dropoff
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setPickup(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("pickup: %w", err)
	}

	c.pickup = p
	return nil
}

func (c *CreateOrderCommand) setDropoff(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("dropoff: %w", err)
	}

	c.dropoff = p
	return nil
}
