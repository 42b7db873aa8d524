package commands

import (
	"errors"
	"fmt"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/pkg/guard"
)

var ErrReportLocationCommandIsNotConstructed = errors.New(
	"ReportLocationCommand must be created via NewReportLocationCommand constructor",
)

// ReportLocationCommand carries a live courier position for one order.
type ReportLocationCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	location kernel.GeoPoint

	guard guard.ConstructorGuard
}

func NewReportLocationCommand(orderID kernel.UUID, location kernel.GeoPoint) (ReportLocationCommand, error) {
	cmd := ReportLocationCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setLocation(location),
	); err != nil {
		return ReportLocationCommand{}, err
	}

	return cmd, nil
}

func (c ReportLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportLocationCommandIsNotConstructed)
}

func (c ReportLocationCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ReportLocationCommand) Location() kernel.GeoPoint {
	return c.location
}

func (c *ReportLocationCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.orderID = id
	return nil
}

func (c *ReportLocationCommand) setLocation(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	c.location = p
	return nil
}
