package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
)

// MemoryStore keeps bookings, audit entries and seats in process. It applies
// the same version and seat rules as the PostgreSQL repositories and is used
// by tests and by the "memory" database driver.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking
	audit    map[string][]domain.AuditEntry
	seats    map[seatKey]*domain.Seat
	auditSeq int64
	legSeq   int64
	seatSeq  int64
}

type seatKey struct {
	flightID string
	number   string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[string]*domain.Booking),
		audit:    make(map[string][]domain.AuditEntry),
		seats:    make(map[seatKey]*domain.Seat),
	}
}

func (m *MemoryStore) Create(ctx context.Context, booking *domain.Booking, audit []domain.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}

	claims := booking.SeatClaims()
	if booking.HoldExpiresAt != nil {
		for _, c := range claims {
			if s, ok := m.seats[seatKey{c.FlightID, c.SeatNumber}]; ok && !s.Claimable(booking.ID, booking.CreatedAt) {
				return fmt.Errorf("%w: %s on %s", domain.ErrSeatUnavailable, c.SeatNumber, c.FlightID)
			}
		}
		for _, c := range claims {
			key := seatKey{c.FlightID, c.SeatNumber}
			s, ok := m.seats[key]
			if !ok {
				m.seatSeq++
				s = &domain.Seat{ID: m.seatSeq, FlightID: c.FlightID, SeatNumber: c.SeatNumber}
				m.seats[key] = s
			}
			until := *booking.HoldExpiresAt
			s.Status = domain.SeatStatusHeld
			s.BookingID = booking.ID
			s.HeldUntil = &until
			s.BookedAt = nil
		}
	}

	booking.Version = 1
	for i := range booking.Legs {
		m.legSeq++
		booking.Legs[i].ID = m.legSeq
		booking.Legs[i].BookingID = booking.ID
	}
	m.bookings[booking.ID] = cloneBooking(booking)
	m.appendAudit(audit)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (m *MemoryStore) Update(ctx context.Context, update BookingUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b := update.Booking
	stored, ok := m.bookings[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != update.ExpectedVersion {
		return domain.ErrConflict
	}

	switch update.Seats {
	case domain.SeatActionBook:
		for _, s := range m.seats {
			if s.BookingID == b.ID && s.Status == domain.SeatStatusHeld {
				at := b.UpdatedAt
				s.Status = domain.SeatStatusBooked
				s.BookedAt = &at
				s.HeldUntil = nil
			}
		}
	case domain.SeatActionRelease:
		for _, s := range m.seats {
			if s.BookingID == b.ID {
				s.Status = domain.SeatStatusAvailable
				s.BookingID = ""
				s.HeldUntil = nil
				s.BookedAt = nil
			}
		}
	}

	b.Version = update.ExpectedVersion + 1
	next := cloneBooking(b)
	next.Plan = stored.Plan
	next.Legs = stored.Legs
	next.CreatedAt = stored.CreatedAt
	next.TotalPriceGBP = stored.TotalPriceGBP
	m.bookings[b.ID] = next
	m.appendAudit(update.Audit)
	return nil
}

func (m *MemoryStore) AuditTrail(ctx context.Context, bookingID string) ([]domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]domain.AuditEntry, len(m.audit[bookingID]))
	copy(entries, m.audit[bookingID])
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func (m *MemoryStore) List(ctx context.Context, filter domain.BookingFilter) (*domain.BookingPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	all := make([]domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.OwnerID != "" && b.OwnerID != filter.OwnerID {
			continue
		}
		all = append(all, *cloneBooking(b))
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return newer(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID)
	})

	if filter.After != nil {
		cut := sort.Search(len(all), func(i int) bool {
			return newer(filter.After.CreatedAt, filter.After.ID, all[i].CreatedAt, all[i].ID)
		})
		all = all[cut:]
	}
	if filter.Limit > 0 && len(all) > filter.Limit+1 {
		all = all[:filter.Limit+1]
	}
	return paginate(all, filter.Limit), nil
}

func (m *MemoryStore) ListByFlight(ctx context.Context, flightID string) ([]domain.Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seats := make([]domain.Seat, 0)
	for _, s := range m.seats {
		if s.FlightID == flightID {
			seats = append(seats, *s)
		}
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatNumber < seats[j].SeatNumber })
	return seats, nil
}

func (m *MemoryStore) ExpireHolds(ctx context.Context, now time.Time) ([]domain.Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	released := make([]domain.Seat, 0)
	for _, s := range m.seats {
		if s.Status != domain.SeatStatusHeld || s.HeldUntil == nil || now.Before(*s.HeldUntil) {
			continue
		}
		released = append(released, domain.Seat{
			ID: s.ID, FlightID: s.FlightID, SeatNumber: s.SeatNumber,
			Status: domain.SeatStatusAvailable, BookingID: s.BookingID, HeldUntil: s.HeldUntil,
		})
		s.Status = domain.SeatStatusAvailable
		s.BookingID = ""
		s.HeldUntil = nil
	}
	return released, nil
}

func (m *MemoryStore) AppendAudit(ctx context.Context, entries []domain.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendAudit(entries)
	return nil
}

func (m *MemoryStore) appendAudit(entries []domain.AuditEntry) {
	for _, e := range entries {
		m.auditSeq++
		e.ID = m.auditSeq
		m.audit[e.BookingID] = append(m.audit[e.BookingID], e)
	}
}

// newer orders bookings newest first, breaking ties on id.
func newer(aAt time.Time, aID string, bAt time.Time, bID string) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aID > bID
}

func cloneBooking(b *domain.Booking) *domain.Booking {
	c := *b
	if b.Passenger != nil {
		p := *b.Passenger
		c.Passenger = &p
	}
	if b.HoldExpiresAt != nil {
		t := *b.HoldExpiresAt
		c.HoldExpiresAt = &t
	}
	c.Legs = append([]domain.BookingLeg(nil), b.Legs...)
	c.Plan.Legs = append([]domain.PlanLeg(nil), b.Plan.Legs...)
	return &c
}

var (
	_ BookingRepository = (*MemoryStore)(nil)
	_ SeatRepository    = (*MemoryStore)(nil)
)

// MemoryCallLog is a bounded ring of provider calls, newest kept.
type MemoryCallLog struct {
	mu      sync.Mutex
	entries []domain.ProviderCallLog
	size    int
	seq     int64
}

func NewMemoryCallLog(size int) *MemoryCallLog {
	if size <= 0 {
		size = 1000
	}
	return &MemoryCallLog{size: size}
}

func (l *MemoryCallLog) Record(_ context.Context, entry domain.ProviderCallLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry.ID = l.seq
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.size {
		l.entries = l.entries[len(l.entries)-l.size:]
	}
	return nil
}

func (l *MemoryCallLog) Recent(_ context.Context, limit int) ([]domain.ProviderCallLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return []domain.ProviderCallLog{}, nil
	}
	out := make([]domain.ProviderCallLog, 0, min(limit, len(l.entries)))
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}
