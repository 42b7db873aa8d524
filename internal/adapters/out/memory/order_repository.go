// Package memory keeps orders in process memory. It is the default store
// and the one used by application tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/pkg/errs"
)

type record struct {
	seq      uint64
	snapshot order.Snapshot
}

// OrderStore is the shared backing map. Create one per process and hand it to
// NewUnitOfWorkFactory.
type OrderStore struct {
	mu      sync.RWMutex
	nextSeq uint64
	records map[kernel.UUID]*record
}

func NewOrderStore() *OrderStore {
	return &OrderStore{records: make(map[kernel.UUID]*record)}
}

// OrderRepository implements ports.OrderRepository on an OrderStore.
type OrderRepository struct {
	store *OrderStore
}

func NewOrderRepository(store *OrderStore) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.records[aggregate.ID()]; ok {
		return errs.NewObjectAlreadyExistsError("order", aggregate.ID().String())
	}

	r.store.nextSeq++
	r.store.records[aggregate.ID()] = &record{
		seq:      r.store.nextSeq,
		snapshot: aggregate.Snapshot(),
	}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.records[aggregate.ID()]
	if !ok {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}

	if rec.snapshot.Version != aggregate.ExpectedVersion() {
		return errs.NewVersionIsInvalidError("order")
	}

	rec.snapshot = aggregate.Snapshot()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	rec, ok := r.store.records[id]
	var snap order.Snapshot
	if ok {
		snap = rec.snapshot
	}
	r.store.mu.RUnlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}

	return order.RestoreOrder(snap)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	return r.list(ctx, 0, func(s order.Snapshot) bool {
		return s.Status == status
	})
}

func (r *OrderRepository) ListDeliveredUnarchived(ctx context.Context, limit int) ([]*order.Order, error) {
	return r.list(ctx, limit, func(s order.Snapshot) bool {
		return s.Status == order.Delivered && s.ArchivedAt == nil
	})
}

func (r *OrderRepository) list(ctx context.Context, limit int, match func(order.Snapshot) bool) ([]*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	matched := make([]record, 0)
	for _, rec := range r.store.records {
		if match(rec.snapshot) {
			matched = append(matched, *rec)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	orders := make([]*order.Order, 0, len(matched))
	for _, rec := range matched {
		o, err := order.RestoreOrder(rec.snapshot)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}
