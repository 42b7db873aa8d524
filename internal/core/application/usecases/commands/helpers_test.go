package commands_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"mensajero/internal/adapters/out/memory"
	"mensajero/internal/core/application/usecases/commands"
	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/ports"
	"mensajero/internal/pkg/keylock"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	havanaPickup  = [2]float64{23.1136, -82.3666}
	havanaDropoff = [2]float64{23.1200, -82.3700}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func point(t *testing.T, c [2]float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(c[0], c[1])
	require.NoError(t, err)
	return p
}

type fixture struct {
	store   *memory.OrderStore
	factory *memory.UnitOfWorkFactory
	locks   *keylock.Striped
}

func newFixture() fixture {
	store := memory.NewOrderStore()
	return fixture{
		store:   store,
		factory: memory.NewUnitOfWorkFactory(store),
		locks:   keylock.NewStriped(16),
	}
}

func (f fixture) repo() ports.OrderRepository {
	return memory.NewOrderRepository(f.store)
}

// seed stores a Havana order and walks it forward to status.
func (f fixture) seed(t *testing.T, status order.Status) *order.Order {
	t.Helper()
	ctx := t.Context()

	cmd, err := commands.NewCreateOrderCommand(
		kernel.NewUUID(),
		[]json.RawMessage{json.RawMessage(`{"producto":"arroz"}`)},
		point(t, havanaPickup),
		point(t, havanaDropoff),
	)
	require.NoError(t, err)

	o, err := commands.NewCreateOrderCommandHandler(f.factory, nil, discardLogger()).Handle(ctx, cmd)
	require.NoError(t, err)

	if status >= order.Assigned {
		claim, claimErr := commands.NewClaimOrderCommand(o.ID(), kernel.NewUUID())
		require.NoError(t, claimErr)
		o, err = commands.NewClaimOrderCommandHandler(f.factory, f.locks).Handle(ctx, claim)
		require.NoError(t, err)
	}
	if status >= order.InTransit {
		move, moveErr := commands.NewMarkInTransitCommand(o.ID())
		require.NoError(t, moveErr)
		o, err = commands.NewMarkInTransitCommandHandler(f.factory, f.locks).Handle(ctx, move)
		require.NoError(t, err)
	}
	if status >= order.Delivered {
		deliver, deliverErr := commands.NewMarkDeliveredCommand(o.ID())
		require.NoError(t, deliverErr)
		o, err = commands.NewMarkDeliveredCommandHandler(f.factory, f.locks).Handle(ctx, deliver)
		require.NoError(t, err)
	}

	require.Equal(t, status, o.Status())
	return o
}

func (f fixture) load(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	o, err := f.repo().Get(t.Context(), id)
	require.NoError(t, err)
	return o
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() ports.UnitOfWork {
	args := m.Called()
	return args.Get(0).(ports.UnitOfWork)
}

type MockOrderArchiver struct{ mock.Mock }

func (m *MockOrderArchiver) Archive(ctx context.Context, snapshot order.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

type MockRouteQuoter struct{ mock.Mock }

func (m *MockRouteQuoter) Quote(ctx context.Context, pickup, dropoff kernel.GeoPoint) (order.RouteQuote, error) {
	args := m.Called(ctx, pickup, dropoff)
	return args.Get(0).(order.RouteQuote), args.Error(1)
}

// racingUoWFactory lets a rival writer update the store right before the
// first Update of the handler under test, as another process would.
type racingUoWFactory struct {
	*memory.UnitOfWorkFactory
	rival func()
	fired bool
}

func (f *racingUoWFactory) Create() ports.UnitOfWork {
	return &racingUoW{UnitOfWork: f.UnitOfWorkFactory.Create(), factory: f}
}

type racingUoW struct {
	ports.UnitOfWork
	factory *racingUoWFactory
}

func (u *racingUoW) OrderRepository() ports.OrderRepository {
	return &racingRepo{OrderRepository: u.UnitOfWork.OrderRepository(), factory: u.factory}
}

type racingRepo struct {
	ports.OrderRepository
	factory *racingUoWFactory
}

func (r *racingRepo) Update(ctx context.Context, o *order.Order) error {
	if !r.factory.fired {
		r.factory.fired = true
		r.factory.rival()
	}
	return r.OrderRepository.Update(ctx, o)
}
