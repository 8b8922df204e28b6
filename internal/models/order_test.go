package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusFailed, true},
		{StatusPaid, StatusProcessing, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusRefunded, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusRefunded, true},

		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusPaid, StatusPending, false},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusRefunded, false},
		{StatusCancelled, StatusPaid, false},
		{StatusRefunded, StatusPaid, false},
		{StatusFailed, StatusPaid, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, s := range []string{StatusDelivered, StatusCancelled, StatusRefunded, StatusFailed} {
		assert.True(t, IsTerminalStatus(s), s)
	}
	for _, s := range []string{StatusPending, StatusPaid, StatusProcessing, StatusShipped} {
		assert.False(t, IsTerminalStatus(s), s)
	}
}

func TestTransitionRejectsWithoutMutation(t *testing.T) {
	o := &Order{Status: StatusShipped}

	err := o.Transition(StatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusShipped, o.Status, "le statut ne doit pas bouger sur un refus")

	// Une commande expédiée reste remboursable
	require.NoError(t, o.Transition(StatusRefunded))
	assert.Equal(t, StatusRefunded, o.Status)
}

func TestCancellationWindow(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPending}).CanBeCancelled())
	assert.True(t, (&Order{Status: StatusPaid}).CanBeCancelled())
	assert.False(t, (&Order{Status: StatusProcessing}).CanBeCancelled())
	assert.False(t, (&Order{Status: StatusShipped}).CanBeCancelled())
	assert.False(t, (&Order{Status: StatusDelivered}).CanBeCancelled())
}

func TestRefundWindow(t *testing.T) {
	assert.False(t, (&Order{Status: StatusPending}).CanBeRefunded())
	assert.True(t, (&Order{Status: StatusPaid}).CanBeRefunded())
	assert.True(t, (&Order{Status: StatusProcessing}).CanBeRefunded())
	assert.True(t, (&Order{Status: StatusShipped}).CanBeRefunded())
	assert.False(t, (&Order{Status: StatusDelivered}).CanBeRefunded())
}

func TestTotalIsConsistent(t *testing.T) {
	o := &Order{
		Subtotal:     100,
		ShippingCost: 5.99,
		Tax:          21,
		Discount:     10,
		TotalAmount:  116.99,
	}
	assert.True(t, o.TotalIsConsistent())

	o.TotalAmount = 120
	assert.False(t, o.TotalIsConsistent())
}
