package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewDeliveryIsPending(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	d := NewDelivery(primitive.NewObjectID(), now)

	assert.Equal(t, DeliveryPending, d.Status)
	assert.Nil(t, d.Date)
	assert.Equal(t, now, d.CreatedAt)
}

func TestTransitionToDeliveredUsesSuppliedDate(t *testing.T) {
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	supplied := time.Date(2024, 3, 1, 18, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	d := NewDelivery(primitive.NewObjectID(), now)

	require.NoError(t, d.Transition(DeliveryDelivered, &supplied, now))

	require.NotNil(t, d.Date)
	assert.True(t, d.Date.Equal(supplied))
	assert.Equal(t, time.UTC, d.Date.Location())
	assert.Equal(t, DeliveryDelivered, d.Status)
}

func TestTransitionToDeliveredDefaultsToNow(t *testing.T) {
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	d := NewDelivery(primitive.NewObjectID(), now)

	require.NoError(t, d.Transition(DeliveryDelivered, nil, now))

	require.NotNil(t, d.Date)
	assert.Equal(t, now, *d.Date)
}

func TestTransitionDeliveredTwiceKeepsFirstDate(t *testing.T) {
	first := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)
	d := NewDelivery(primitive.NewObjectID(), first)

	require.NoError(t, d.Transition(DeliveryDelivered, nil, first))
	require.NoError(t, d.Transition(DeliveryDelivered, &later, later))

	require.NotNil(t, d.Date)
	assert.Equal(t, first, *d.Date)
	assert.Equal(t, later, d.UpdatedAt)
}

func TestTransitionOutOfDeliveredClearsDate(t *testing.T) {
	for _, next := range []DeliveryStatus{DeliveryPending, DeliveryInTransit} {
		t.Run(string(next), func(t *testing.T) {
			now := time.Now().UTC()
			d := NewDelivery(primitive.NewObjectID(), now)
			require.NoError(t, d.Transition(DeliveryDelivered, nil, now))

			require.NoError(t, d.Transition(next, nil, now))

			assert.Nil(t, d.Date)
			assert.Equal(t, next, d.Status)
		})
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	now := time.Now().UTC()
	d := NewDelivery(primitive.NewObjectID(), now)

	err := d.Transition(DeliveryStatus("Lost"), nil, now)

	assert.ErrorIs(t, err, ErrInvalidDeliveryStatus)
	assert.Equal(t, DeliveryPending, d.Status)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 40.0, RoundCents(40))
	assert.Equal(t, 0.3, RoundCents(0.1+0.2))
	assert.Equal(t, 10.13, RoundCents(10.125000001))
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusCancelled.Valid())
	assert.False(t, OrderStatus("Returned").Valid())
	assert.True(t, ShippingExpress.Valid())
	assert.False(t, ShippingMethod("").Valid())
}
