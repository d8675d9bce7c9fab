package email

import (
	"context"
	"fmt"
	"log"

	"github.com/Domenick1991/orbitaltravel/internal/kafka"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender turns booking events into customer notifications. Delivery is a log
// line; swap deliver for a real transport.
type Sender struct {
	deliver func(ctx context.Context, msg Message) error
}

func NewSender() *Sender {
	return &Sender{deliver: logDelivery}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok := Compose(event)
	if !ok {
		return nil
	}
	return s.deliver(ctx, msg)
}

// Compose builds the notification for event. It reports false for events
// that have no recipient or need no email.
func Compose(event kafka.BookingEvent) (Message, bool) {
	if event.Email == "" {
		return Message{}, false
	}

	msg := Message{To: event.Email}
	switch event.Type {
	case kafka.EventBookingConfirmed:
		msg.Subject = "Your booking is confirmed"
		msg.Body = fmt.Sprintf("Hello %s, booking %s is paid (%.2f GBP, payment %s).",
			event.FullName, event.BookingID, event.TotalPriceGBP, event.PaymentReference)
	case kafka.EventBookingPaymentFailed:
		msg.Subject = "Payment for your booking failed"
		msg.Body = fmt.Sprintf("Hello %s, we could not take payment for booking %s.", event.FullName, event.BookingID)
	case kafka.EventBookingCancelled:
		msg.Subject = "Your booking was cancelled"
		msg.Body = fmt.Sprintf("Hello %s, booking %s is cancelled. Refund: %.2f GBP.",
			event.FullName, event.BookingID, event.RefundAmount)
	default:
		return Message{}, false
	}
	return msg, true
}

func logDelivery(_ context.Context, msg Message) error {
	log.Printf("send email to %s: %s", msg.To, msg.Subject)
	return nil
}
