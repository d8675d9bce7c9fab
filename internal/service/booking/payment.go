package booking

import (
	"context"
	"fmt"
	"log"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/google/uuid"
)

// PaymentProvider is the boundary to whatever takes the customer's money.
// Charge returns an error wrapping domain.ErrPaymentDeclined when the payment
// is refused; any other error means the outcome is unknown.
type PaymentProvider interface {
	Charge(ctx context.Context, bookingID string, amount float64) (string, error)
	Refund(ctx context.Context, bookingID, reference string, amount float64) error
}

// SimulatedPayments approves every charge that is not above DeclineAbove.
// A zero DeclineAbove approves everything.
type SimulatedPayments struct {
	DeclineAbove float64
}

func NewSimulatedPayments() *SimulatedPayments {
	return &SimulatedPayments{}
}

func (p *SimulatedPayments) Charge(ctx context.Context, bookingID string, amount float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.DeclineAbove > 0 && amount > p.DeclineAbove {
		return "", fmt.Errorf("%w: %.2f GBP over limit", domain.ErrPaymentDeclined, amount)
	}
	return "PAY-" + uuid.NewString(), nil
}

func (p *SimulatedPayments) Refund(ctx context.Context, bookingID, reference string, amount float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("refunded %.2f GBP for booking %s (payment %s)", amount, bookingID, reference)
	return nil
}

var _ PaymentProvider = (*SimulatedPayments)(nil)
