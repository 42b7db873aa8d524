package dynamo

import (
	"context"
	"errors"

	"mensajero/internal/core/ports"
)

var ErrNoActiveTransaction = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	repository *OrderRepository
}

func NewUnitOfWorkFactory(repository *OrderRepository) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{repository: repository}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{repository: f.repository}
}

// UnitOfWork only tracks whether Begin was called. Every write is a single
// conditional request, so there is nothing to commit or undo.
type UnitOfWork struct {
	repository *OrderRepository
	active     bool
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
	return u.repository
}
