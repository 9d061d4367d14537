package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusUpcoming, OrderStatusOngoing, true},
		{OrderStatusUpcoming, OrderStatusCancelled, true},
		{OrderStatusUpcoming, OrderStatusCompleted, false},
		{OrderStatusUpcoming, OrderStatusLate, false},
		{OrderStatusOngoing, OrderStatusCompleted, true},
		{OrderStatusOngoing, OrderStatusLate, true},
		{OrderStatusOngoing, OrderStatusCancelled, true},
		{OrderStatusOngoing, OrderStatusUpcoming, false},
		{OrderStatusLate, OrderStatusCompleted, true},
		{OrderStatusLate, OrderStatusCancelled, false},
		//終端からはどこへも行けない
		{OrderStatusCompleted, OrderStatusOngoing, false},
		{OrderStatusCancelled, OrderStatusUpcoming, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestOrderStatusSameValueIsAllowed(t *testing.T) {
	//同値更新は常にno-opとして許可
	for _, s := range []OrderStatus{
		OrderStatusUpcoming, OrderStatusOngoing, OrderStatusCompleted,
		OrderStatusLate, OrderStatusCancelled,
	} {
		assert.True(t, s.CanTransitionTo(s), "%s -> %s", s, s)
	}
}

func TestDeliveryStatusTransitions(t *testing.T) {
	cases := []struct {
		from DeliveryStatus
		to   DeliveryStatus
		ok   bool
	}{
		{DeliveryStatusPending, DeliveryStatusAccepted, true},
		{DeliveryStatusPending, DeliveryStatusCancelled, true},
		{DeliveryStatusPending, DeliveryStatusPicked, false},
		{DeliveryStatusAccepted, DeliveryStatusOutForPickup, true},
		{DeliveryStatusOutForPickup, DeliveryStatusPicked, true},
		{DeliveryStatusPicked, DeliveryStatusDelivered, true},
		{DeliveryStatusPicked, DeliveryStatusReturned, false},
		{DeliveryStatusDelivered, DeliveryStatusReturned, true},
		{DeliveryStatusDelivered, DeliveryStatusReturnedDamaged, true},
		{DeliveryStatusReturned, DeliveryStatusDelivered, false},
		{DeliveryStatusReturnedDamaged, DeliveryStatusReturned, false},
		{DeliveryStatusCancelled, DeliveryStatusPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusProcessing))
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusCompleted))
	assert.True(t, PaymentStatusProcessing.CanTransitionTo(PaymentStatusCompleted))
	assert.False(t, PaymentStatusCompleted.CanTransitionTo(PaymentStatusPending))
	assert.False(t, PaymentStatusCompleted.CanTransitionTo(PaymentStatusProcessing))
	assert.True(t, PaymentStatusProcessing.CanTransitionTo(PaymentStatusProcessing))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, OrderStatusLate.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.True(t, DeliveryStatusOutForPickup.Valid())
	assert.False(t, DeliveryStatus("lost").Valid())
	assert.True(t, PaymentStatusProcessing.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())
}
