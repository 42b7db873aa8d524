package queries

import (
	"context"

	"mensajero/internal/core/ports"
)

// ListOrdersByStatusQueryHandler returns orders of one status in insertion order.
type ListOrdersByStatusQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewListOrdersByStatusQueryHandler(uowFactory ports.UnitOfWorkFactory) ListOrdersByStatusQueryHandler {
	return ListOrdersByStatusQueryHandler{uowFactory: uowFactory}
}

func (h ListOrdersByStatusQueryHandler) Handle(
	ctx context.Context,
	query ListOrdersByStatusQuery,
) ([]OrderResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders, err := h.uowFactory.Create().OrderRepository().ListByStatus(ctx, query.Status())
	if err != nil {
		return nil, err
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, NewOrderResponse(o))
	}

	return resp, nil
}
