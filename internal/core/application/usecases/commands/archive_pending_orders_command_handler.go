package commands

import (
	"context"
	"errors"
	"log/slog"

	"mensajero/internal/core/ports"
)

// ArchivePendingOrdersCommandHandler reconciles archival failures. Each
// pending order is archived independently; failures are logged, joined and
// returned together with the number of orders that made it.
type ArchivePendingOrdersCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	archive    ArchiveOrderCommandHandler
	logger     *slog.Logger
}

func NewArchivePendingOrdersCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	archive ArchiveOrderCommandHandler,
	logger *slog.Logger,
) ArchivePendingOrdersCommandHandler {
	return ArchivePendingOrdersCommandHandler{
		uowFactory: uowFactory,
		archive:    archive,
		logger:     logger.With("component", "ArchivePendingOrdersCommandHandler"),
	}
}

func (h ArchivePendingOrdersCommandHandler) Handle(
	ctx context.Context,
	cmd ArchivePendingOrdersCommand,
) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	pending, err := h.uowFactory.Create().OrderRepository().ListDeliveredUnarchived(ctx, cmd.BatchSize())
	if err != nil {
		return 0, err
	}

	archived := 0
	var failures []error
	for _, o := range pending {
		archiveCmd, cmdErr := NewArchiveOrderCommand(o.ID())
		if cmdErr == nil {
			cmdErr = h.archive.Handle(ctx, archiveCmd)
		}

		if cmdErr != nil {
			h.logger.WarnContext(ctx, "Order archival failed", "order_id", o.ID().String(), "error", cmdErr)
			failures = append(failures, cmdErr)
			continue
		}
		archived++
	}

	return archived, errors.Join(failures...)
}
