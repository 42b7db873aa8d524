package order_test

import (
	"encoding/json"
	"testing"
	"time"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func point(t *testing.T, lat, lon float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return p
}

func items() []json.RawMessage {
	return []json.RawMessage{
		json.RawMessage(`{"name":"pan","qty":2}`),
		json.RawMessage(`"cafe"`),
	}
}

func newAvailableOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.NewUUID(),
		items(),
		point(t, 23.1136, -82.3666),
		point(t, 23.1200, -82.3700),
		nil,
		createdAt,
	)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("creates an available order", func(t *testing.T) {
		id := kernel.NewUUID()
		quote, err := order.NewRouteQuote(1.2, 3.5)
		require.NoError(t, err)

		o, err := order.NewOrder(id, items(), point(t, 1, 2), point(t, 3, 4), &quote, createdAt)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.True(t, o.ID().IsEqual(id))
		assert.Equal(t, order.Available, o.Status())
		assert.Nil(t, o.Courier())
		assert.Nil(t, o.ArchivedAt())
		assert.False(t, o.IsArchived())
		assert.Equal(t, items(), o.Items())
		assert.Equal(t, createdAt, o.CreatedAt())
		assert.Equal(t, int64(1), o.Version())
		assert.Equal(t, int64(0), o.ExpectedVersion())
		require.NotNil(t, o.RouteQuote())
		assert.InDelta(t, 1.2, o.RouteQuote().DistanceKm(), 1e-9)
		assert.InDelta(t, 3.5, o.RouteQuote().Price(), 1e-9)
	})

	t.Run("items are copied", func(t *testing.T) {
		in := items()
		o, err := order.NewOrder(kernel.NewUUID(), in, point(t, 1, 2), point(t, 3, 4), nil, createdAt)
		require.NoError(t, err)

		in[0][2] = 'X'
		out := o.Items()
		out[1] = json.RawMessage(`"te"`)

		assert.Equal(t, items(), o.Items())
	})

	t.Run("empty items are allowed", func(t *testing.T) {
		o, err := order.NewOrder(kernel.NewUUID(), nil, point(t, 1, 2), point(t, 3, 4), nil, createdAt)
		require.NoError(t, err)
		assert.Empty(t, o.Items())
	})

	t.Run("joins every validation error", func(t *testing.T) {
		o, err := order.NewOrder(
			kernel.UUID{},
			[]json.RawMessage{json.RawMessage(`{broken`)},
			kernel.GeoPoint{},
			kernel.GeoPoint{},
			nil,
			time.Time{},
		)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.Contains(t, err.Error(), "UUID must be created")
		assert.Contains(t, err.Error(), "item 0 is not valid JSON")
		assert.Contains(t, err.Error(), "pickup")
		assert.Contains(t, err.Error(), "dropoff")
		assert.Contains(t, err.Error(), "createdAt")
	})
}

func TestOrder_ZeroValueIsInvalid(t *testing.T) {
	var o order.Order
	require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)

	var nilOrder *order.Order
	require.ErrorIs(t, nilOrder.Validate(), order.ErrOrderIsNotConstructed)
}

func TestOrder_ForwardLifecycle(t *testing.T) {
	o := newAvailableOrder(t)
	courierID := kernel.NewUUID()

	require.NoError(t, o.Claim(courierID))
	assert.Equal(t, order.Assigned, o.Status())
	require.NotNil(t, o.Courier())
	assert.True(t, o.Courier().IsEqual(courierID))

	require.NoError(t, o.MarkInTransit())
	assert.Equal(t, order.InTransit, o.Status())

	require.NoError(t, o.MarkDelivered())
	assert.Equal(t, order.Delivered, o.Status())
	assert.True(t, o.Courier().IsEqual(courierID))
}

func TestOrder_RejectsSkipsAndReversals(t *testing.T) {
	t.Run("cannot skip from Available", func(t *testing.T) {
		o := newAvailableOrder(t)

		require.ErrorIs(t, o.MarkInTransit(), errs.ErrTransitionIsInvalid)
		require.ErrorIs(t, o.MarkDelivered(), errs.ErrTransitionIsInvalid)
		assert.Equal(t, order.Available, o.Status())
		assert.Equal(t, int64(1), o.Version())
	})

	t.Run("claim on a non-available order leaves it unchanged", func(t *testing.T) {
		o := newAvailableOrder(t)
		first := kernel.NewUUID()
		require.NoError(t, o.Claim(first))

		require.ErrorIs(t, o.Claim(kernel.NewUUID()), errs.ErrTransitionIsInvalid)
		assert.Equal(t, order.Assigned, o.Status())
		assert.True(t, o.Courier().IsEqual(first))

		require.NoError(t, o.MarkInTransit())
		require.ErrorIs(t, o.Claim(kernel.NewUUID()), errs.ErrTransitionIsInvalid)
		require.NoError(t, o.MarkDelivered())
		require.ErrorIs(t, o.Claim(kernel.NewUUID()), errs.ErrTransitionIsInvalid)
		assert.Equal(t, order.Delivered, o.Status())
		assert.True(t, o.Courier().IsEqual(first))
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		o := newAvailableOrder(t)
		require.NoError(t, o.Claim(kernel.NewUUID()))
		require.NoError(t, o.MarkInTransit())
		require.NoError(t, o.MarkDelivered())

		require.ErrorIs(t, o.MarkInTransit(), errs.ErrTransitionIsInvalid)
		require.ErrorIs(t, o.MarkDelivered(), errs.ErrTransitionIsInvalid)
		assert.Equal(t, order.Delivered, o.Status())
	})

	t.Run("claim requires a courier", func(t *testing.T) {
		o := newAvailableOrder(t)

		require.ErrorIs(t, o.Claim(kernel.UUID{}), kernel.ErrUUIDIsNotConstructed)
		assert.Equal(t, order.Available, o.Status())
		assert.Nil(t, o.Courier())
	})
}

func TestOrder_VersionIsRaisedOncePerLoad(t *testing.T) {
	o := newAvailableOrder(t)
	restored, err := order.RestoreOrder(o.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, int64(1), restored.ExpectedVersion())

	require.NoError(t, restored.Claim(kernel.NewUUID()))
	assert.Equal(t, int64(2), restored.Version())
	require.NoError(t, restored.MarkInTransit())
	assert.Equal(t, int64(2), restored.Version())
	assert.Equal(t, int64(1), restored.ExpectedVersion())
}

func TestOrder_MarkArchived(t *testing.T) {
	archivedAt := createdAt.Add(time.Hour)

	t.Run("only delivered orders", func(t *testing.T) {
		o := newAvailableOrder(t)

		require.ErrorIs(t, o.MarkArchived(archivedAt), errs.ErrValueIsInvalid)
		assert.False(t, o.IsArchived())
	})

	t.Run("archives once", func(t *testing.T) {
		o := newAvailableOrder(t)
		require.NoError(t, o.Claim(kernel.NewUUID()))
		require.NoError(t, o.MarkInTransit())
		require.NoError(t, o.MarkDelivered())

		require.NoError(t, o.MarkArchived(archivedAt))
		assert.True(t, o.IsArchived())
		assert.Equal(t, archivedAt, *o.ArchivedAt())
		assert.Equal(t, order.Delivered, o.Status())

		require.ErrorIs(t, o.MarkArchived(archivedAt), order.ErrOrderIsAlreadyArchived)
	})
}

func TestRestoreOrder(t *testing.T) {
	t.Run("round trips a snapshot", func(t *testing.T) {
		o := newAvailableOrder(t)
		require.NoError(t, o.Claim(kernel.NewUUID()))

		snap := o.Snapshot()
		restored, err := order.RestoreOrder(snap)

		require.NoError(t, err)
		require.NoError(t, restored.Validate())
		assert.Equal(t, snap, restored.Snapshot())
	})

	t.Run("rejects inconsistent courier", func(t *testing.T) {
		snap := newAvailableOrder(t).Snapshot()
		courierID := kernel.NewUUID()
		snap.CourierID = &courierID

		_, err := order.RestoreOrder(snap)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		snap.CourierID = nil
		snap.Status = order.InTransit
		_, err = order.RestoreOrder(snap)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects archive on a non-delivered order", func(t *testing.T) {
		snap := newAvailableOrder(t).Snapshot()
		at := createdAt
		snap.ArchivedAt = &at

		_, err := order.RestoreOrder(snap)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be archived")
	})

	t.Run("rejects unknown status and bad version", func(t *testing.T) {
		snap := newAvailableOrder(t).Snapshot()
		snap.Status = order.Unknown
		snap.Version = 0

		_, err := order.RestoreOrder(snap)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestNewRouteQuote(t *testing.T) {
	q, err := order.NewRouteQuote(0, 0)
	require.NoError(t, err)
	assert.Zero(t, q.Price())

	_, err = order.NewRouteQuote(-1, 2)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}
