package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeatRepository covers the seat operations that are not part of a booking
// transaction. Holding, booking and releasing happen inside
// BookingRepository so they commit with the booking row.
type SeatRepository interface {
	ListByFlight(ctx context.Context, flightID string) ([]domain.Seat, error)
	ExpireHolds(ctx context.Context, now time.Time) ([]domain.Seat, error)
}

type PGSeatRepository struct {
	db *pgxpool.Pool
}

func NewSeatRepository(db *pgxpool.Pool) SeatRepository {
	return &PGSeatRepository{db: db}
}

func (r *PGSeatRepository) ListByFlight(ctx context.Context, flightID string) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, seat_number, status, booking_id, held_until, booked_at
		FROM seats WHERE flight_id=$1 ORDER BY seat_number`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var (
			s       domain.Seat
			booking *string
		)
		if err := rows.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.Status, &booking, &s.HeldUntil, &s.BookedAt); err != nil {
			return nil, err
		}
		s.BookingID = deref(booking)
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ExpireHolds returns lapsed holds to the pool. The returned seats carry the
// booking that held them.
func (r *PGSeatRepository) ExpireHolds(ctx context.Context, now time.Time) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `WITH expired AS (
			SELECT id, booking_id, held_until FROM seats
			WHERE status = 'held' AND held_until <= $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE seats s SET status='available', booking_id=NULL, held_until=NULL
		FROM expired e WHERE s.id = e.id
		RETURNING s.id, s.flight_id, s.seat_number, e.booking_id, e.held_until`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	released := make([]domain.Seat, 0)
	for rows.Next() {
		var (
			s       domain.Seat
			booking *string
		)
		if err := rows.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &booking, &s.HeldUntil); err != nil {
			return nil, err
		}
		s.BookingID = deref(booking)
		s.Status = domain.SeatStatusAvailable
		released = append(released, s)
	}
	return released, rows.Err()
}

var _ SeatRepository = (*PGSeatRepository)(nil)
