package memory

import (
	"context"
	"errors"

	"mensajero/internal/core/ports"
)

// ErrNoActiveTransaction mirrors gorm.ErrInvalidTransaction for the memory store.
var ErrNoActiveTransaction = errors.New("no active transaction")

// UnitOfWorkFactory hands out units of work over one OrderStore.
type UnitOfWorkFactory struct {
	store *OrderStore
}

func NewUnitOfWorkFactory(store *OrderStore) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork tracks Begin/Commit/Rollback but writes go straight to the
// store; every repository call is atomic on its own.
type UnitOfWork struct {
	store  *OrderStore
	active bool
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoActiveTransaction
	}
	u.active = false
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoActiveTransaction
	}
	u.active = false
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return NewOrderRepository(u.store)
}
