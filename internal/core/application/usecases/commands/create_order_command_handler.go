package commands

import (
	"context"
	"log/slog"
	"time"

	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/ports"
)

// CreateOrderCommandHandler stores new orders. When a RouteQuoter is
// configured the road distance and price are attached; a failing quote is
// logged and the order is created without one.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, quoter, logger)
//	created, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrObjectAlreadyExists) {
//	    // duplicate id, the stored order is untouched
//	}
type CreateOrderCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	quoter     ports.RouteQuoter
	logger     *slog.Logger
}

// NewCreateOrderCommandHandler creates the handler. quoter may be nil.
func NewCreateOrderCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	quoter ports.RouteQuoter,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		quoter:     quoter,
		logger:     logger.With("component", "CreateOrderCommandHandler"),
	}
}

func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	created, err := order.NewOrder(
		cmd.OrderID(),
		cmd.Items(),
		cmd.Pickup(),
		cmd.Dropoff(),
		h.quote(ctx, cmd),
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, created); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}

func (h CreateOrderCommandHandler) quote(ctx context.Context, cmd CreateOrderCommand) *order.RouteQuote {
	if h.quoter == nil {
		return nil
	}

	q, err := h.quoter.Quote(ctx, cmd.Pickup(), cmd.Dropoff())
	if err != nil {
		h.logger.WarnContext(ctx, "Route quote unavailable, creating order without it",
			"order_id", cmd.OrderID().String(),
			"error", err)
		return nil
	}

	return &q
}
