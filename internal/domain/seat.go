package domain

import (
	"fmt"
	"time"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusHeld      SeatStatus = "held"
	SeatStatusBooked    SeatStatus = "booked"
)

type Seat struct {
	ID         int64
	FlightID   string
	SeatNumber string
	Status     SeatStatus
	BookingID  string
	HeldUntil  *time.Time
	BookedAt   *time.Time
}

// Claimable reports whether a booking may take the seat at now: it is free,
// its hold lapsed, or the same booking already holds it.
func (s Seat) Claimable(bookingID string, now time.Time) bool {
	switch s.Status {
	case SeatStatusAvailable:
		return true
	case SeatStatusHeld:
		if s.BookingID == bookingID {
			return true
		}
		return s.HeldUntil != nil && !now.Before(*s.HeldUntil)
	}
	return false
}

type SeatClaim struct {
	FlightID   string
	SeatNumber string
}

// SeatAction is the seat inventory side effect applied in the same
// transaction as a booking update.
type SeatAction int

const (
	SeatActionNone SeatAction = iota
	SeatActionBook
	SeatActionRelease
)

func FlightID(provider, origin, destination string, departAt time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", provider, origin, destination, departAt.UTC().Format(time.RFC3339))
}
