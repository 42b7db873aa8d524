package queries

import (
	"errors"

	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/pkg/guard"
)

var ErrListOrdersByStatusQueryIsNotConstructed = errors.New(
	"ListOrdersByStatusQuery must be created via NewListOrdersByStatusQuery constructor",
)

// ListOrdersByStatusQuery lists every order currently in one status.
type ListOrdersByStatusQuery struct {
	status order.Status
	guard  guard.ConstructorGuard
}

func NewListOrdersByStatusQuery(status order.Status) (ListOrdersByStatusQuery, error) {
	if err := status.Validate(); err != nil {
		return ListOrdersByStatusQuery{}, err
	}

	return ListOrdersByStatusQuery{status: status, guard: guard.NewConstructorGuard()}, nil
}

func (q ListOrdersByStatusQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersByStatusQueryIsNotConstructed)
}

func (q ListOrdersByStatusQuery) Status() order.Status {
	return q.status
}
