package api

import (
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
)

type legView struct {
	ID              int64  `json:"id"`
	Provider        string `json:"provider"`
	Mode            string `json:"mode"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	DepartAt        string `json:"depart_at"`
	ArriveAt        string `json:"arrive_at"`
	DurationMinutes int    `json:"duration_minutes"`
	SeatNumber      string `json:"seat_number,omitempty"`
	FlightID        string `json:"flight_id"`
}

type bookingView struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id,omitempty"`
	Status           string            `json:"status"`
	Plan             domain.Plan       `json:"plan"`
	TotalPriceGBP    float64           `json:"total_price_gbp"`
	Passenger        *domain.Passenger `json:"passenger_data,omitempty"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	HoldExpiresAt    *string           `json:"hold_expires_at,omitempty"`
	Version          int64             `json:"version"`
	Legs             []legView         `json:"legs"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
	AuditTrail       []auditView       `json:"audit_trail,omitempty"`
}

type auditView struct {
	ID          int64          `json:"id"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Action      string         `json:"action"`
	BeforeState map[string]any `json:"before_state,omitempty"`
	AfterState  map[string]any `json:"after_state,omitempty"`
	ExtraData   map[string]any `json:"extra_data,omitempty"`
	UserID      string         `json:"user_id,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

type seatView struct {
	SeatNumber string  `json:"seat_number"`
	Status     string  `json:"status"`
	BookingID  string  `json:"booking_id,omitempty"`
	HeldUntil  *string `json:"held_until,omitempty"`
	BookedAt   *string `json:"booked_at,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toBookingView(b *domain.Booking) bookingView {
	view := bookingView{
		ID:               b.ID,
		UserID:           b.OwnerID,
		Status:           string(b.Status),
		Plan:             b.Plan,
		TotalPriceGBP:    b.TotalPriceGBP,
		Passenger:        b.Passenger,
		PaymentReference: b.PaymentReference,
		HoldExpiresAt:    formatOptional(b.HoldExpiresAt),
		Version:          b.Version,
		Legs:             make([]legView, 0, len(b.Legs)),
		CreatedAt:        formatTime(b.CreatedAt),
		UpdatedAt:        formatTime(b.UpdatedAt),
	}
	for _, l := range b.Legs {
		view.Legs = append(view.Legs, legView{
			ID:              l.ID,
			Provider:        l.Provider,
			Mode:            string(l.Mode),
			Origin:          l.Origin,
			Destination:     l.Destination,
			DepartAt:        formatTime(l.DepartAt),
			ArriveAt:        formatTime(l.ArriveAt),
			DurationMinutes: l.DurationMinutes,
			SeatNumber:      l.SeatNumber,
			FlightID:        l.FlightID(),
		})
	}
	return view
}

func toAuditViews(entries []domain.AuditEntry) []auditView {
	views := make([]auditView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditView{
			ID:          e.ID,
			EntityType:  e.EntityType,
			EntityID:    e.EntityID,
			Action:      e.Action,
			BeforeState: e.BeforeState,
			AfterState:  e.AfterState,
			ExtraData:   e.ExtraData,
			UserID:      e.UserID,
			Timestamp:   e.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	return views
}

func toSeatViews(seats []domain.Seat) []seatView {
	views := make([]seatView, 0, len(seats))
	for _, s := range seats {
		views = append(views, seatView{
			SeatNumber: s.SeatNumber,
			Status:     string(s.Status),
			BookingID:  s.BookingID,
			HeldUntil:  formatOptional(s.HeldUntil),
			BookedAt:   formatOptional(s.BookedAt),
		})
	}
	return views
}
