package commands

import (
	"context"
	"fmt"
	"time"

	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/ports"
	"mensajero/internal/pkg/errs"
)

// ArchiveOrderCommandHandler sends a Delivered order to the archive and then
// records archivedAt. An archiver failure is returned and leaves the order
// Delivered and unarchived, ready for the reconciliation job.
//
// Archiving an already archived order is a no-op. The check, the publish and
// the bookkeeping run under the order's lock, so inside one process an order
// is published once. Across processes, or when recording archivedAt fails
// after a publish, the same order can be published again; consumers
// deduplicate on the order id, which is also the message key.
type ArchiveOrderCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	mutator    orderMutator
	archiver   ports.OrderArchiver
}

func NewArchiveOrderCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	locks OrderLocker,
	archiver ports.OrderArchiver,
) ArchiveOrderCommandHandler {
	return ArchiveOrderCommandHandler{
		uowFactory: uowFactory,
		mutator:    newOrderMutator(uowFactory, locks),
		archiver:   archiver,
	}
}

func (h ArchiveOrderCommandHandler) Handle(ctx context.Context, cmd ArchiveOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	unlock := h.mutator.lock(cmd.OrderID())
	defer unlock()

	current, err := h.uowFactory.Create().OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if current.IsArchived() {
		return nil
	}

	if current.Status() != order.Delivered {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s order cannot be archived", current.Status()),
		)
	}

	if err = h.archiver.Archive(ctx, current.Snapshot()); err != nil {
		return fmt.Errorf("archive order %s: %w", cmd.OrderID(), err)
	}

	_, err = h.mutator.mutateLocked(ctx, cmd.OrderID(), func(o *order.Order) (bool, error) {
		if o.IsArchived() {
			return false, nil
		}
		return true, o.MarkArchived(time.Now())
	})
	return err
}
