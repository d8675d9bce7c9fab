package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/orbitaltravel/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	testCases := []struct {
		name    string
		event   kafka.BookingEvent
		ok      bool
		subject string
		body    string
	}{
		{
			name:    "confirmed",
			event:   kafka.BookingEvent{Type: kafka.EventBookingConfirmed, BookingID: "b1", Email: "a@b.co", FullName: "Ada", TotalPriceGBP: 350, PaymentReference: "PAY-1"},
			ok:      true,
			subject: "Your booking is confirmed",
			body:    "350.00 GBP, payment PAY-1",
		},
		{
			name:    "cancelled with refund",
			event:   kafka.BookingEvent{Type: kafka.EventBookingCancelled, BookingID: "b1", Email: "a@b.co", RefundAmount: 350},
			ok:      true,
			subject: "Your booking was cancelled",
			body:    "Refund: 350.00 GBP",
		},
		{
			name:    "payment failed",
			event:   kafka.BookingEvent{Type: kafka.EventBookingPaymentFailed, BookingID: "b1", Email: "a@b.co"},
			ok:      true,
			subject: "Payment for your booking failed",
			body:    "booking b1",
		},
		{name: "no recipient", event: kafka.BookingEvent{Type: kafka.EventBookingConfirmed}},
		{name: "created needs no mail", event: kafka.BookingEvent{Type: kafka.EventBookingCreated, Email: "a@b.co"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, ok := Compose(tc.event)
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			assert.Equal(t, tc.event.Email, msg.To)
			assert.Equal(t, tc.subject, msg.Subject)
			assert.Contains(t, msg.Body, tc.body)
		})
	}
}

func TestSender_Send(t *testing.T) {
	var sent []Message
	s := &Sender{deliver: func(_ context.Context, msg Message) error {
		sent = append(sent, msg)
		return nil
	}}

	require.NoError(t, s.Send(context.Background(), kafka.BookingEvent{Type: kafka.EventBookingCreated, Email: "a@b.co"}))
	require.NoError(t, s.Send(context.Background(), kafka.BookingEvent{Type: kafka.EventBookingCancelled, Email: "a@b.co"}))

	require.Len(t, sent, 1)
	assert.Equal(t, "Your booking was cancelled", sent[0].Subject)
}

func TestNewSender(t *testing.T) {
	assert.NoError(t, NewSender().Send(context.Background(), kafka.BookingEvent{Type: kafka.EventBookingConfirmed, Email: "a@b.co"}))
}
