package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_CanTransition(t *testing.T) {
	statuses := []BookingStatus{
		BookingStatusProposed, BookingStatusConfirmed, BookingStatusPaid,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusFailed,
	}
	allowed := map[[2]BookingStatus]bool{
		{BookingStatusProposed, BookingStatusConfirmed}:  true,
		{BookingStatusConfirmed, BookingStatusPaid}:      true,
		{BookingStatusConfirmed, BookingStatusFailed}:    true,
		{BookingStatusPaid, BookingStatusCompleted}:      true,
		{BookingStatusProposed, BookingStatusCancelled}:  true,
		{BookingStatusConfirmed, BookingStatusCancelled}: true,
		{BookingStatusPaid, BookingStatusCancelled}:      true,
		{BookingStatusCompleted, BookingStatusCancelled}: true,
		{BookingStatusFailed, BookingStatusCancelled}:    true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			assert.Equal(t, allowed[[2]BookingStatus{from, to}], from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestBooking_Transition(t *testing.T) {
	b := &Booking{ID: "b-1", Status: BookingStatusProposed}

	require.NoError(t, b.Transition("confirm", BookingStatusConfirmed))
	assert.Equal(t, BookingStatusConfirmed, b.Status)

	err := b.Transition("confirm", BookingStatusConfirmed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	assert.Equal(t, "cannot confirm booking in CONFIRMED state", err.Error())
	assert.Equal(t, BookingStatusConfirmed, b.Status)

	b.Status = BookingStatusCancelled
	assert.ErrorIs(t, b.Transition("cancel", BookingStatusCancelled), ErrInvalidStateTransition)
}

func TestBookingStatus_Valid(t *testing.T) {
	assert.True(t, BookingStatusFailed.Valid())
	assert.False(t, BookingStatus("paid").Valid())
}
