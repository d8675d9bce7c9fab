package bookings_service_api

import (
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
)

type pbBooking struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id,omitempty"`
	Status           string            `json:"status"`
	Plan             domain.Plan       `json:"plan"`
	TotalPriceGBP    float64           `json:"total_price_gbp"`
	Passenger        *domain.Passenger `json:"passenger_data,omitempty"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	HoldExpiresAt    string            `json:"hold_expires_at,omitempty"`
	Version          int64             `json:"version"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
	AuditTrail       []pbAuditEntry    `json:"audit_trail,omitempty"`
}

type pbAuditEntry struct {
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type"`
	BeforeState map[string]any `json:"before_state,omitempty"`
	AfterState  map[string]any `json:"after_state,omitempty"`
	ExtraData   map[string]any `json:"extra_data,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

func toPBBooking(b *domain.Booking, trail []domain.AuditEntry) pbBooking {
	out := pbBooking{
		ID:               b.ID,
		UserID:           b.OwnerID,
		Status:           string(b.Status),
		Plan:             b.Plan,
		TotalPriceGBP:    b.TotalPriceGBP,
		Passenger:        b.Passenger,
		PaymentReference: b.PaymentReference,
		Version:          b.Version,
		CreatedAt:        b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        b.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if b.HoldExpiresAt != nil {
		out.HoldExpiresAt = b.HoldExpiresAt.UTC().Format(time.RFC3339)
	}
	for _, e := range trail {
		out.AuditTrail = append(out.AuditTrail, pbAuditEntry{
			Action:      e.Action,
			EntityType:  e.EntityType,
			BeforeState: e.BeforeState,
			AfterState:  e.AfterState,
			ExtraData:   e.ExtraData,
			Timestamp:   e.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
