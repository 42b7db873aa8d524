package kernel_test

import (
	"testing"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderIDString = "550e8400-e29b-41d4-a716-446655440000"

func TestNewUUID(t *testing.T) {
	id1 := kernel.NewUUID()
	id2 := kernel.NewUUID()

	require.NoError(t, id1.Validate())
	assert.False(t, id1.IsZero())
	assert.False(t, id1.IsEqual(id2))
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`, id1.String())
}

func TestUUIDFromString(t *testing.T) {
	t.Run("accepted forms", func(t *testing.T) {
		for _, in := range []string{
			orderIDString,
			"{550e8400-e29b-41d4-a716-446655440000}",
			"urn:uuid:550e8400-e29b-41d4-a716-446655440000",
			"550e8400e29b41d4a716446655440000",
		} {
			id, err := kernel.UUIDFromString(in)
			require.NoError(t, err, in)
			assert.Equal(t, orderIDString, id.String())
		}
	})

	t.Run("malformed input", func(t *testing.T) {
		for _, in := range []string{"", "not-a-uuid", "550e8400-e29b-41d4-a716", "zzze8400-e29b-41d4-a716-446655440000"} {
			_, err := kernel.UUIDFromString(in)
			require.Error(t, err, in)
			require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		}
	})

	t.Run("nil UUID is rejected", func(t *testing.T) {
		_, err := kernel.UUIDFromString("00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}

func TestMustUUIDFromString(t *testing.T) {
	assert.Equal(t, orderIDString, kernel.MustUUIDFromString(orderIDString).String())
	assert.Panics(t, func() { kernel.MustUUIDFromString("bogus") })
}

func TestUUID_Raw(t *testing.T) {
	id := kernel.MustUUIDFromString(orderIDString)

	raw := id.Raw()
	assert.IsType(t, uuid.UUID{}, raw)

	raw[0] = 0xFF
	assert.Equal(t, orderIDString, id.String())
}

func TestUUIDFromRaw(t *testing.T) {
	id, err := kernel.UUIDFromRaw(uuid.MustParse(orderIDString))
	require.NoError(t, err)
	assert.Equal(t, orderIDString, id.String())

	_, err = kernel.UUIDFromRaw(uuid.Nil)
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

func TestUUID_ZeroValue(t *testing.T) {
	var zero kernel.UUID

	assert.True(t, zero.IsZero())
	require.ErrorIs(t, zero.Validate(), kernel.ErrUUIDIsNotConstructed)
	assert.True(t, zero.IsEqual(kernel.UUID{}))
	assert.False(t, zero.IsEqual(kernel.NewUUID()))
}
