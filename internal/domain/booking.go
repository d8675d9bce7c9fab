package domain

import (
	"regexp"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusProposed  BookingStatus = "PROPOSED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusPaid      BookingStatus = "PAID"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusFailed    BookingStatus = "FAILED"
)

// transitions lists the forward moves of the lifecycle. FAILED is only
// reached from CONFIRMED, when the payment is declined. Cancellation is
// handled separately because it is reachable from every state.
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusProposed:  {BookingStatusConfirmed},
	BookingStatusConfirmed: {BookingStatusPaid, BookingStatusFailed},
	BookingStatusPaid:      {BookingStatusCompleted},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusProposed, BookingStatusConfirmed, BookingStatusPaid,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// Cancelling is allowed from anything except CANCELLED itself, including the
// other terminal states.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if next == BookingStatusCancelled {
		return s != BookingStatusCancelled
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type TransportMode string

const (
	ModeFlight  TransportMode = "flight"
	ModeOrbital TransportMode = "orbital"
)

func (m TransportMode) Valid() bool {
	return m == ModeFlight || m == ModeOrbital
}

type PlanLeg struct {
	Provider        string        `json:"provider"`
	Mode            TransportMode `json:"mode"`
	Origin          string        `json:"origin"`
	Destination     string        `json:"destination"`
	DepartAt        time.Time     `json:"depart_at"`
	ArriveAt        time.Time     `json:"arrive_at"`
	DurationMinutes int           `json:"duration_minutes"`
	SeatNumber      string        `json:"seat_number,omitempty"`
}

// FlightID identifies the seat inventory a leg draws from.
func (l PlanLeg) FlightID() string {
	return FlightID(l.Provider, l.Origin, l.Destination, l.DepartAt)
}

type PlanMetrics struct {
	TotalPriceGBP        float64 `json:"total_price_gbp"`
	TotalDurationMinutes int     `json:"total_duration_minutes,omitempty"`
	Layovers             int     `json:"layovers,omitempty"`
	RiskScore            float64 `json:"risk_score,omitempty"`
}

// Plan is the itinerary a client selected. It is snapshotted on the booking
// at creation and never changes afterwards.
type Plan struct {
	ID      string      `json:"id,omitempty"`
	Legs    []PlanLeg   `json:"legs"`
	Metrics PlanMetrics `json:"metrics"`
}

type Passenger struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	PassportNumber string `json:"passport_number,omitempty"`
}

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

func (p Passenger) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return &ValidationError{Field: "passenger_data.full_name", Message: "full name is required"}
	}
	if !emailPattern.MatchString(p.Email) {
		return &ValidationError{Field: "passenger_data.email", Message: "email must look like local@domain.tld"}
	}
	return nil
}

type BookingLeg struct {
	ID              int64
	BookingID       string
	Provider        string
	Mode            TransportMode
	Origin          string
	Destination     string
	DepartAt        time.Time
	ArriveAt        time.Time
	DurationMinutes int
	SeatNumber      string
}

func (l BookingLeg) FlightID() string {
	return FlightID(l.Provider, l.Origin, l.Destination, l.DepartAt)
}

type Booking struct {
	ID               string
	OwnerID          string
	Status           BookingStatus
	Plan             Plan
	TotalPriceGBP    float64
	Passenger        *Passenger
	PaymentReference string
	HoldExpiresAt    *time.Time
	Version          int64
	Legs             []BookingLeg
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HoldExpired is the passive deadline check for a PROPOSED booking.
func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == BookingStatusProposed && b.HoldExpiresAt != nil && !now.Before(*b.HoldExpiresAt)
}

// Transition moves b to next, or reports op as refused from the current
// state. Every status change of a booking goes through here.
func (b *Booking) Transition(op string, next BookingStatus) error {
	if !b.Status.CanTransition(next) {
		return &StateTransitionError{Op: op, Current: b.Status}
	}
	b.Status = next
	return nil
}

// SeatClaims lists the seats the booking's legs ask for.
func (b *Booking) SeatClaims() []SeatClaim {
	var claims []SeatClaim
	for _, leg := range b.Legs {
		if leg.SeatNumber == "" {
			continue
		}
		claims = append(claims, SeatClaim{FlightID: leg.FlightID(), SeatNumber: leg.SeatNumber})
	}
	return claims
}

// LegsFromPlan builds the persisted legs for a new booking.
func LegsFromPlan(bookingID string, plan Plan) []BookingLeg {
	legs := make([]BookingLeg, 0, len(plan.Legs))
	for _, l := range plan.Legs {
		legs = append(legs, BookingLeg{
			BookingID:       bookingID,
			Provider:        l.Provider,
			Mode:            l.Mode,
			Origin:          l.Origin,
			Destination:     l.Destination,
			DepartAt:        l.DepartAt,
			ArriveAt:        l.ArriveAt,
			DurationMinutes: l.DurationMinutes,
			SeatNumber:      l.SeatNumber,
		})
	}
	return legs
}

type BookingFilter struct {
	Status  BookingStatus
	OwnerID string
	Limit   int
	// After is the position of the last row of the previous page.
	After *PageCursor
}

type PageCursor struct {
	CreatedAt time.Time
	ID        string
}

type BookingPage struct {
	Bookings []Booking
	Next     *PageCursor
}
