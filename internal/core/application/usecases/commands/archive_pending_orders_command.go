package commands

import (
	"errors"

	"mensajero/internal/pkg/errs"
	"mensajero/internal/pkg/guard"
)

var ErrArchivePendingOrdersCommandIsNotConstructed = errors.New(
	"ArchivePendingOrdersCommand must be created via NewArchivePendingOrdersCommand constructor",
)

// DefaultArchiveBatchSize caps how many orders one reconciliation pass handles.
const DefaultArchiveBatchSize = 100

// ArchivePendingOrdersCommand retries archival for Delivered orders that
// never reached the archive.
type ArchivePendingOrdersCommand struct {
	batchSize int
	guard     guard.ConstructorGuard
}

func NewArchivePendingOrdersCommand(batchSize int) (ArchivePendingOrdersCommand, error) {
	if batchSize <= 0 {
		return ArchivePendingOrdersCommand{}, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "max int")
	}

	return ArchivePendingOrdersCommand{
		batchSize: batchSize,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ArchivePendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrArchivePendingOrdersCommandIsNotConstructed)
}

func (c ArchivePendingOrdersCommand) BatchSize() int {
	return c.batchSize
}
