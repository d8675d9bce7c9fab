package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking, audit []domain.AuditEntry) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	Update(ctx context.Context, update BookingUpdate) error
	AuditTrail(ctx context.Context, bookingID string) ([]domain.AuditEntry, error)
	// AppendAudit records entries that accompany no state change.
	AppendAudit(ctx context.Context, entries []domain.AuditEntry) error
	List(ctx context.Context, filter domain.BookingFilter) (*domain.BookingPage, error)
}

// BookingUpdate is one committed change of a booking aggregate. The write
// only succeeds while the stored version still equals ExpectedVersion.
type BookingUpdate struct {
	Booking         *domain.Booking
	ExpectedVersion int64
	Audit           []domain.AuditEntry
	Seats           domain.SeatAction
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, status, plan_json, total_price_gbp, passenger_data, payment_reference, hold_expires_at, version, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking, audit []domain.AuditEntry) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	plan, err := json.Marshal(booking.Plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	booking.Version = 1
	if _, err := tx.Exec(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		booking.ID, nullString(booking.OwnerID), booking.Status, plan, booking.TotalPriceGBP,
		passengerJSON(booking.Passenger), nullString(booking.PaymentReference), booking.HoldExpiresAt,
		booking.Version, booking.CreatedAt, booking.UpdatedAt); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	for i := range booking.Legs {
		leg := &booking.Legs[i]
		leg.BookingID = booking.ID
		if err := tx.QueryRow(ctx, `INSERT INTO booking_legs (booking_id, provider, mode, origin, destination, depart_at, arrive_at, duration_minutes, seat_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			leg.BookingID, leg.Provider, leg.Mode, leg.Origin, leg.Destination, leg.DepartAt, leg.ArriveAt,
			leg.DurationMinutes, nullString(leg.SeatNumber)).Scan(&leg.ID); err != nil {
			return fmt.Errorf("insert leg: %w", err)
		}
	}

	if booking.HoldExpiresAt != nil {
		for _, claim := range booking.SeatClaims() {
			if err := holdSeat(ctx, tx, booking, claim); err != nil {
				return err
			}
		}
	}

	if err := insertAudit(ctx, tx, audit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func holdSeat(ctx context.Context, tx pgx.Tx, booking *domain.Booking, claim domain.SeatClaim) error {
	cmd, err := tx.Exec(ctx, `INSERT INTO seats (flight_id, seat_number, status, booking_id, held_until)
		VALUES ($1, $2, 'held', $3, $4)
		ON CONFLICT (flight_id, seat_number) DO UPDATE
		SET status = 'held', booking_id = EXCLUDED.booking_id, held_until = EXCLUDED.held_until, booked_at = NULL
		WHERE seats.status = 'available'
		   OR (seats.status = 'held' AND (seats.booking_id = EXCLUDED.booking_id OR seats.held_until <= $5))`,
		claim.FlightID, claim.SeatNumber, booking.ID, booking.HoldExpiresAt, booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("hold seat: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s on %s", domain.ErrSeatUnavailable, claim.SeatNumber, claim.FlightID)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	legs, err := r.legs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	b.Legs = legs[id]
	return b, nil
}

func (r *PGBookingRepository) Update(ctx context.Context, update BookingUpdate) error {
	b := update.Booking

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var version int64
	err = tx.QueryRow(ctx, `UPDATE bookings
		SET status=$1, passenger_data=$2, payment_reference=$3, hold_expires_at=$4, updated_at=$5, version=version+1
		WHERE id=$6 AND version=$7
		RETURNING version`,
		b.Status, passengerJSON(b.Passenger), nullString(b.PaymentReference), b.HoldExpiresAt, b.UpdatedAt,
		b.ID, update.ExpectedVersion).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missingOrConflict(ctx, tx, b.ID)
		}
		return fmt.Errorf("update booking: %w", err)
	}

	switch update.Seats {
	case domain.SeatActionBook:
		if _, err := tx.Exec(ctx, `UPDATE seats SET status='booked', booked_at=$2, held_until=NULL
			WHERE booking_id=$1 AND status='held'`, b.ID, b.UpdatedAt); err != nil {
			return fmt.Errorf("book seats: %w", err)
		}
	case domain.SeatActionRelease:
		if _, err := tx.Exec(ctx, `UPDATE seats SET status='available', booking_id=NULL, held_until=NULL, booked_at=NULL
			WHERE booking_id=$1`, b.ID); err != nil {
			return fmt.Errorf("release seats: %w", err)
		}
	}

	if err := insertAudit(ctx, tx, update.Audit); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	b.Version = version
	return nil
}

func (r *PGBookingRepository) missingOrConflict(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func (r *PGBookingRepository) AuditTrail(ctx context.Context, bookingID string) ([]domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, entity_type, entity_id, action, before_state, after_state, extra_data, user_id, timestamp
		FROM audit_logs WHERE booking_id=$1 ORDER BY timestamp ASC, id ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			e                     domain.AuditEntry
			bookingRef, entityID  *string
			userID                *string
			before, after, extras []byte
		)
		if err := rows.Scan(&e.ID, &bookingRef, &e.EntityType, &entityID, &e.Action, &before, &after, &extras, &userID, &e.Timestamp); err != nil {
			return nil, err
		}
		e.BookingID = deref(bookingRef)
		e.EntityID = deref(entityID)
		e.UserID = deref(userID)
		if e.BeforeState, err = decodeObject(before); err != nil {
			return nil, err
		}
		if e.AfterState, err = decodeObject(after); err != nil {
			return nil, err
		}
		if e.ExtraData, err = decodeObject(extras); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PGBookingRepository) AppendAudit(ctx context.Context, entries []domain.AuditEntry) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertAudit(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) (*domain.BookingPage, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.OwnerID != "" {
		where = append(where, "user_id = "+arg(filter.OwnerID))
	}
	if filter.After != nil {
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", arg(filter.After.CreatedAt), arg(filter.After.ID)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT " + arg(filter.Limit+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := paginate(bookings, filter.Limit)
	ids := make([]string, 0, len(page.Bookings))
	for _, b := range page.Bookings {
		ids = append(ids, b.ID)
	}
	legs, err := r.legs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range page.Bookings {
		page.Bookings[i].Legs = legs[page.Bookings[i].ID]
	}
	return page, nil
}

func (r *PGBookingRepository) legs(ctx context.Context, bookingIDs []string) (map[string][]domain.BookingLeg, error) {
	out := make(map[string][]domain.BookingLeg, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id, booking_id, provider, mode, origin, destination, depart_at, arrive_at, duration_minutes, seat_number
		FROM booking_legs WHERE booking_id = ANY($1) ORDER BY id`, bookingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l    domain.BookingLeg
			seat *string
		)
		if err := rows.Scan(&l.ID, &l.BookingID, &l.Provider, &l.Mode, &l.Origin, &l.Destination, &l.DepartAt, &l.ArriveAt, &l.DurationMinutes, &seat); err != nil {
			return nil, err
		}
		l.SeatNumber = deref(seat)
		out[l.BookingID] = append(out[l.BookingID], l)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b               domain.Booking
		owner, payRef   *string
		plan, passenger []byte
	)
	if err := row.Scan(&b.ID, &owner, &b.Status, &plan, &b.TotalPriceGBP, &passenger, &payRef, &b.HoldExpiresAt, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.OwnerID = deref(owner)
	b.PaymentReference = deref(payRef)
	if err := json.Unmarshal(plan, &b.Plan); err != nil {
		return nil, fmt.Errorf("decode plan of %s: %w", b.ID, err)
	}
	if len(passenger) > 0 {
		b.Passenger = &domain.Passenger{}
		if err := json.Unmarshal(passenger, b.Passenger); err != nil {
			return nil, fmt.Errorf("decode passenger of %s: %w", b.ID, err)
		}
	}
	return &b, nil
}

func insertAudit(ctx context.Context, tx pgx.Tx, entries []domain.AuditEntry) error {
	for _, e := range entries {
		if _, err := tx.Exec(ctx, `INSERT INTO audit_logs (booking_id, entity_type, entity_id, action, before_state, after_state, extra_data, user_id, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			nullString(e.BookingID), e.EntityType, nullString(e.EntityID), e.Action,
			objectJSON(e.BeforeState), objectJSON(e.AfterState), objectJSON(e.ExtraData),
			nullString(e.UserID), e.Timestamp); err != nil {
			return fmt.Errorf("insert audit %s: %w", e.Action, err)
		}
	}
	return nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
