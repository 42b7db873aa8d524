// Package commands contains the operations that change order state.
// Every command is built by a validating constructor and executed by a
// handler that owns the transaction boundary through ports.UnitOfWorkFactory.
package commands

import (
	"context"
	"errors"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/ports"
	"mensajero/internal/pkg/errs"
)

// MaxUpdateAttempts bounds how often a read-modify-write is replayed after a
// compare-and-swap conflict reported by the store.
const MaxUpdateAttempts = 3

// OrderLocker serializes work on a single order id inside the process.
// keylock.Striped satisfies it.
type OrderLocker interface {
	Lock(key string) func()
}

// mutateFunc applies one change to a freshly loaded order and reports
// whether anything needs to be stored.
type mutateFunc func(o *order.Order) (changed bool, err error)

// orderMutator runs read-modify-write cycles on one order under the order's
// lock, retrying when the store reports a version conflict from another process.
type orderMutator struct {
	uowFactory ports.UnitOfWorkFactory
	locks      OrderLocker
}

func newOrderMutator(uowFactory ports.UnitOfWorkFactory, locks OrderLocker) orderMutator {
	return orderMutator{uowFactory: uowFactory, locks: locks}
}

func (m orderMutator) mutate(ctx context.Context, id kernel.UUID, fn mutateFunc) (*order.Order, error) {
	unlock := m.lock(id)
	defer unlock()

	return m.mutateLocked(ctx, id, fn)
}

// lock takes the in-process lock of one order. The striped lock is not
// reentrant: a holder calls mutateLocked, never mutate.
func (m orderMutator) lock(id kernel.UUID) func() {
	return m.locks.Lock(id.String())
}

func (m orderMutator) mutateLocked(ctx context.Context, id kernel.UUID, fn mutateFunc) (*order.Order, error) {
	var err error
	for attempt := 1; attempt <= MaxUpdateAttempts; attempt++ {
		var o *order.Order
		o, err = m.mutateOnce(ctx, id, fn)
		if !errors.Is(err, errs.ErrVersionIsInvalid) {
			return o, err
		}
	}

	return nil, err
}

func (m orderMutator) mutateOnce(ctx context.Context, id kernel.UUID, fn mutateFunc) (*order.Order, error) {
	uow := m.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := fn(o)
	if err != nil {
		return nil, err
	}

	if changed {
		if err = repo.Update(ctx, o); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
