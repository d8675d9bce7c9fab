package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/kafka"
	"github.com/Domenick1991/orbitaltravel/internal/repository"
	"github.com/Domenick1991/orbitaltravel/internal/simulation"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, id string, passenger domain.Passenger) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*CancelResult, error)
	GetBooking(ctx context.Context, id string) (*BookingDetails, error)
	ListBookings(ctx context.Context, input ListInput) (*ListResult, error)
	SeatMap(ctx context.Context, flightID string) ([]domain.Seat, error)
	ReleaseExpiredHolds(ctx context.Context) ([]domain.Seat, error)
}

// Locker serialises writers of one booking and one seat across processes.
// AcquireBookingLock returns an empty token when the booking is taken.
type Locker interface {
	AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (string, error)
	ReleaseBookingLock(ctx context.Context, bookingID, token string) error
	AcquireSeatLock(ctx context.Context, flightID, seat, bookingID string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, flightID, seat, bookingID string) error
}

// ProviderGateway is the part of the provider simulation used to re-check a
// plan before a hold is committed.
type ProviderGateway interface {
	Pricing(ctx context.Context, req domain.PricingRequest) (*domain.PricingQuote, error)
	Availability(ctx context.Context, req domain.AvailabilityRequest) (*domain.AvailabilityReport, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	Plan    domain.Plan `json:"plan"`
	OwnerID string      `json:"user_id,omitempty"`
}

type CancelResult struct {
	Booking          *domain.Booking
	RefundAmount     float64
	Message          string
	AlreadyCancelled bool
	// RefundPending is set when the booking was cancelled but the refund
	// call failed.
	RefundPending bool
}

type BookingDetails struct {
	Booking    *domain.Booking
	AuditTrail []domain.AuditEntry
}

type ListInput struct {
	Status  string
	OwnerID string
	Limit   int
	Cursor  string
}

type ListResult struct {
	Bookings   []domain.Booking
	NextCursor string
}

type BookingService struct {
	bookings           repository.BookingRepository
	seats              repository.SeatRepository
	payments           PaymentProvider
	producer           Producer
	bookingTopic       string
	notificationsTopic string

	locker  Locker
	lockTTL time.Duration

	gateway        ProviderGateway
	gatewayTimeout time.Duration
	priceTolerance float64

	holdTTL           time.Duration
	enforceHoldExpiry bool
	listDefault       int
	listMax           int
	now               func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithLocker adds distributed booking and seat locks on top of the version
// check done by the repository.
func WithLocker(locker Locker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithVerification makes CreateBooking re-check availability and price of
// every leg. tolerance is the accepted relative difference between the plan
// total and the quoted total; zero skips the comparison.
func WithVerification(gateway ProviderGateway, timeout time.Duration, tolerance float64) BookingServiceOption {
	return func(s *BookingService) {
		s.gateway = gateway
		s.gatewayTimeout = timeout
		s.priceTolerance = tolerance
	}
}

func WithHoldTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if ttl > 0 {
			s.holdTTL = ttl
		}
	}
}

func WithEnforceHoldExpiry(enforce bool) BookingServiceOption {
	return func(s *BookingService) {
		s.enforceHoldExpiry = enforce
	}
}

func WithListLimits(defaultLimit, maxLimit int) BookingServiceOption {
	return func(s *BookingService) {
		if defaultLimit > 0 {
			s.listDefault = defaultLimit
		}
		if maxLimit > 0 {
			s.listMax = maxLimit
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	seats repository.SeatRepository,
	payments PaymentProvider,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		seats:        seats,
		payments:     payments,
		producer:     producer,
		bookingTopic: bookingTopic,
		lockTTL:      10 * time.Second,
		holdTTL:      5 * time.Minute,
		listDefault:  50,
		listMax:      200,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.listDefault > service.listMax {
		service.listDefault = service.listMax
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := validatePlan(input.Plan); err != nil {
		return nil, err
	}

	var quoted *float64
	if s.gateway != nil {
		total, err := s.verifyPlan(ctx, input.Plan)
		if err != nil {
			return nil, err
		}
		quoted = &total
	}

	now := s.now().UTC()
	holdUntil := now.Add(s.holdTTL)
	booking := &domain.Booking{
		ID:            uuid.NewString(),
		OwnerID:       input.OwnerID,
		Status:        domain.BookingStatusProposed,
		Plan:          input.Plan,
		TotalPriceGBP: input.Plan.Metrics.TotalPriceGBP,
		HoldExpiresAt: &holdUntil,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	booking.Legs = domain.LegsFromPlan(booking.ID, input.Plan)

	claims := booking.SeatClaims()
	if err := s.lockSeats(ctx, booking.ID, claims); err != nil {
		return nil, err
	}

	created := domain.AuditEntry{
		BookingID:  booking.ID,
		EntityType: domain.EntityBooking,
		EntityID:   booking.ID,
		Action:     domain.AuditCreated,
		AfterState: map[string]any{"status": string(booking.Status), "price": booking.TotalPriceGBP},
		UserID:     booking.OwnerID,
		Timestamp:  now,
	}
	if quoted != nil {
		created.ExtraData = map[string]any{"quoted_price_gbp": *quoted}
	}

	if err := s.bookings.Create(ctx, booking, []domain.AuditEntry{created}); err != nil {
		s.unlockSeats(ctx, booking.ID, claims)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.publish(ctx, kafka.EventBookingCreated, booking, 0)
	return booking, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, id string, passenger domain.Passenger) (*domain.Booking, error) {
	unlock, err := s.lockBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expectedVersion := current.Version
	next := *current
	if err := next.Transition("confirm", domain.BookingStatusConfirmed); err != nil {
		return nil, err
	}
	if err := passenger.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if s.enforceHoldExpiry && current.HoldExpired(now) {
		return nil, fmt.Errorf("%w at %s", domain.ErrHoldExpired, current.HoldExpiresAt.Format(time.RFC3339))
	}

	next.Passenger = &passenger
	next.UpdatedAt = now

	confirmed := domain.NewTransitionEntry(&next, domain.EntityBooking, domain.AuditStateChange,
		current.Status, next.Status, nil, now)

	reference, err := s.payments.Charge(ctx, current.ID, current.TotalPriceGBP)
	if errors.Is(err, domain.ErrPaymentDeclined) {
		return s.failPayment(ctx, &next, expectedVersion, confirmed, err)
	}
	if err != nil {
		return nil, fmt.Errorf("charge booking %s: %w", current.ID, err)
	}

	if err := next.Transition("confirm", domain.BookingStatusPaid); err != nil {
		return nil, err
	}
	next.PaymentReference = reference
	paid := domain.NewTransitionEntry(&next, domain.EntityPayment, domain.AuditPaymentSuccessful,
		domain.BookingStatusConfirmed, next.Status,
		map[string]any{"payment_reference": reference, "amount": current.TotalPriceGBP}, now)

	err = s.bookings.Update(ctx, repository.BookingUpdate{
		Booking:         &next,
		ExpectedVersion: expectedVersion,
		Audit:           []domain.AuditEntry{confirmed, paid},
		Seats:           domain.SeatActionBook,
	})
	if err != nil {
		if rerr := s.payments.Refund(context.WithoutCancel(ctx), current.ID, reference, current.TotalPriceGBP); rerr != nil {
			log.Printf("WARNING: Failed to refund payment %s after aborted confirm of %s: %v", reference, current.ID, rerr)
		}
		return nil, s.staleConfirm(ctx, id, err)
	}

	s.unlockSeats(ctx, next.ID, next.SeatClaims())
	s.publish(ctx, kafka.EventBookingConfirmed, &next, 0)
	return &next, nil
}

// failPayment commits the declined payment: the booking passes through
// CONFIRMED into FAILED and its seats go back to the inventory.
func (s *BookingService) failPayment(ctx context.Context, next *domain.Booking, expectedVersion int64, confirmed domain.AuditEntry, cause error) (*domain.Booking, error) {
	if err := next.Transition("confirm", domain.BookingStatusFailed); err != nil {
		return nil, err
	}
	failed := domain.NewTransitionEntry(next, domain.EntityPayment, domain.AuditPaymentFailed,
		domain.BookingStatusConfirmed, next.Status,
		map[string]any{"amount": next.TotalPriceGBP, "reason": cause.Error()}, next.UpdatedAt)

	err := s.bookings.Update(ctx, repository.BookingUpdate{
		Booking:         next,
		ExpectedVersion: expectedVersion,
		Audit:           []domain.AuditEntry{confirmed, failed},
		Seats:           domain.SeatActionRelease,
	})
	if err != nil {
		return nil, s.staleConfirm(ctx, next.ID, err)
	}

	s.unlockSeats(ctx, next.ID, next.SeatClaims())
	s.publish(ctx, kafka.EventBookingPaymentFailed, next, 0)
	return next, cause
}

// CancelBooking commits the cancellation before any money moves, so of two
// racing cancels only the one whose write lands issues the refund.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*CancelResult, error) {
	unlock, err := s.lockBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return alreadyCancelled(current), nil
	}

	var refund float64
	if current.Status == domain.BookingStatusPaid {
		refund = current.TotalPriceGBP
	}

	now := s.now().UTC()
	next := *current
	if err := next.Transition("cancel", domain.BookingStatusCancelled); err != nil {
		return nil, err
	}
	next.UpdatedAt = now
	entry := domain.NewTransitionEntry(&next, domain.EntityBooking, domain.AuditCancelled,
		current.Status, next.Status, map[string]any{"refund_amount": refund}, now)

	err = s.bookings.Update(ctx, repository.BookingUpdate{
		Booking:         &next,
		ExpectedVersion: current.Version,
		Audit:           []domain.AuditEntry{entry},
		Seats:           domain.SeatActionRelease,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if latest, gerr := s.bookings.GetByID(ctx, id); gerr == nil && latest.Status == domain.BookingStatusCancelled {
				return alreadyCancelled(latest), nil
			}
		}
		return nil, err
	}
	s.unlockSeats(ctx, next.ID, next.SeatClaims())

	result := &CancelResult{Booking: &next, RefundAmount: refund, Message: "Booking cancelled"}
	if refund > 0 {
		if err := s.payments.Refund(context.WithoutCancel(ctx), current.ID, current.PaymentReference, refund); err != nil {
			log.Printf("WARNING: Refund of %.2f GBP for cancelled booking %s failed: %v", refund, current.ID, err)
			s.recordRefundFailure(ctx, &next, refund, err)
			result.RefundPending = true
			result.Message = "Booking cancelled, refund pending"
		}
	}

	s.publish(ctx, kafka.EventBookingCancelled, &next, refund)
	return result, nil
}

func alreadyCancelled(b *domain.Booking) *CancelResult {
	return &CancelResult{Booking: b, Message: "Booking already cancelled", AlreadyCancelled: true}
}

// recordRefundFailure leaves the owed amount in the audit trail for manual
// settlement.
func (s *BookingService) recordRefundFailure(ctx context.Context, b *domain.Booking, amount float64, cause error) {
	entry := domain.AuditEntry{
		BookingID:  b.ID,
		EntityType: domain.EntityPayment,
		EntityID:   b.PaymentReference,
		Action:     domain.AuditRefundFailed,
		ExtraData:  map[string]any{"amount": amount, "reason": cause.Error()},
		UserID:     b.OwnerID,
		Timestamp:  s.now().UTC(),
	}
	if err := s.bookings.AppendAudit(context.WithoutCancel(ctx), []domain.AuditEntry{entry}); err != nil {
		log.Printf("WARNING: Failed to record refund failure for %s: %v", b.ID, err)
	}
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*BookingDetails, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	trail, err := s.bookings.AuditTrail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	return &BookingDetails{Booking: booking, AuditTrail: trail}, nil
}

func (s *BookingService) ListBookings(ctx context.Context, input ListInput) (*ListResult, error) {
	filter := domain.BookingFilter{OwnerID: input.OwnerID, Limit: s.listDefault}

	if input.Status != "" {
		status := domain.BookingStatus(input.Status)
		if !status.Valid() {
			return nil, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", input.Status)}
		}
		filter.Status = status
	}

	switch {
	case input.Limit < 0:
		return nil, &domain.ValidationError{Field: "limit", Message: "must not be negative"}
	case input.Limit > s.listMax:
		filter.Limit = s.listMax
	case input.Limit > 0:
		filter.Limit = input.Limit
	}

	if input.Cursor != "" {
		after, err := decodeCursor(input.Cursor)
		if err != nil {
			return nil, err
		}
		filter.After = after
	}

	page, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	result := &ListResult{Bookings: page.Bookings}
	if page.Next != nil {
		result.NextCursor = encodeCursor(*page.Next)
	}
	return result, nil
}

func (s *BookingService) SeatMap(ctx context.Context, flightID string) ([]domain.Seat, error) {
	if flightID == "" {
		return nil, &domain.ValidationError{Field: "flight_id", Message: "is required"}
	}
	return s.seats.ListByFlight(ctx, flightID)
}

// ReleaseExpiredHolds returns lapsed seat holds to the inventory. Bookings
// themselves are left in their current state.
func (s *BookingService) ReleaseExpiredHolds(ctx context.Context) ([]domain.Seat, error) {
	released, err := s.seats.ExpireHolds(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("expire seat holds: %w", err)
	}
	for _, seat := range released {
		if s.locker != nil {
			_ = s.locker.ReleaseSeatLock(ctx, seat.FlightID, seat.SeatNumber, seat.BookingID)
		}
	}
	return released, nil
}

// verifyPlan re-checks every leg against the providers and returns the sum
// of the quoted totals.
func (s *BookingService) verifyPlan(ctx context.Context, plan domain.Plan) (float64, error) {
	if s.gatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.gatewayTimeout)
		defer cancel()
	}

	var quoted float64
	for i, leg := range plan.Legs {
		report, err := s.gateway.Availability(ctx, domain.AvailabilityRequest{
			Origin: leg.Origin, Destination: leg.Destination, Depart: leg.DepartAt, Mode: leg.Mode, Provider: leg.Provider,
		})
		if err != nil {
			return 0, upstream(ctx, domain.ToolAvailability, err)
		}
		if err := report.Validate(); err != nil {
			return 0, err
		}
		if report.SoldOut() {
			return 0, fmt.Errorf("%w: leg %d %s-%s is sold out", domain.ErrSeatUnavailable, i, leg.Origin, leg.Destination)
		}

		depart := leg.DepartAt
		quote, err := s.gateway.Pricing(ctx, domain.PricingRequest{
			Origin: leg.Origin, Destination: leg.Destination, Mode: leg.Mode, Provider: leg.Provider, Date: &depart, PassengerCount: 1,
		})
		if err != nil {
			return 0, upstream(ctx, domain.ToolPricing, err)
		}
		if err := quote.Validate(); err != nil {
			return 0, err
		}
		quoted += quote.Total
	}
	quoted = math.Round(quoted*100) / 100

	if s.priceTolerance > 0 {
		total := plan.Metrics.TotalPriceGBP
		if math.Abs(total-quoted) > s.priceTolerance*quoted {
			return 0, &domain.ValidationError{
				Field:   "plan.metrics.total_price_gbp",
				Message: fmt.Sprintf("price %.2f differs from current quote %.2f", total, quoted),
			}
		}
	}
	return quoted, nil
}

// upstream normalises gateway failures: a call cut short by the verification
// deadline is a timeout like any other.
func upstream(ctx context.Context, tool string, err error) error {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.UpstreamError{Tool: tool, Kind: domain.ErrUpstreamTimeout, Detail: err.Error()}
	}
	return err
}

func (s *BookingService) lockBooking(ctx context.Context, id string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	token, err := s.locker.AcquireBookingLock(ctx, id, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock booking %s: %w", id, err)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: booking %s is being modified", domain.ErrConflict, id)
	}
	return func() {
		if err := s.locker.ReleaseBookingLock(context.WithoutCancel(ctx), id, token); err != nil {
			log.Printf("WARNING: Failed to release lock for booking %s: %v", id, err)
		}
	}, nil
}

func (s *BookingService) lockSeats(ctx context.Context, bookingID string, claims []domain.SeatClaim) error {
	if s.locker == nil {
		return nil
	}
	for i, c := range claims {
		ok, err := s.locker.AcquireSeatLock(ctx, c.FlightID, c.SeatNumber, bookingID, s.holdTTL)
		if err == nil && !ok {
			err = fmt.Errorf("%w: %s on %s", domain.ErrSeatUnavailable, c.SeatNumber, c.FlightID)
		}
		if err != nil {
			s.unlockSeats(ctx, bookingID, claims[:i])
			return err
		}
	}
	return nil
}

func (s *BookingService) unlockSeats(ctx context.Context, bookingID string, claims []domain.SeatClaim) {
	if s.locker == nil {
		return
	}
	for _, c := range claims {
		if err := s.locker.ReleaseSeatLock(context.WithoutCancel(ctx), c.FlightID, c.SeatNumber, bookingID); err != nil {
			log.Printf("WARNING: Failed to release seat lock %s/%s: %v", c.FlightID, c.SeatNumber, err)
		}
	}
}

// staleConfirm turns a lost version race into the error the caller would
// have seen had it arrived second: the state the winner left behind.
func (s *BookingService) staleConfirm(ctx context.Context, id string, err error) error {
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}
	latest, gerr := s.bookings.GetByID(ctx, id)
	if gerr != nil {
		return err
	}
	if latest.Status != domain.BookingStatusProposed {
		return &domain.StateTransitionError{Op: "confirm", Current: latest.Status}
	}
	return err
}

func validatePlan(plan domain.Plan) error {
	if len(plan.Legs) == 0 {
		return &domain.ValidationError{Field: "plan.legs", Message: "at least one leg is required"}
	}

	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil {
		return fmt.Errorf("decode plan: %w", err)
	}
	result := simulation.ValidateSchema(domain.ValidationRequest{Object: object, SchemaName: simulation.SchemaPlan})
	if !result.Valid {
		issue := result.Errors[0]
		return &domain.ValidationError{Field: "plan." + issue.Path, Message: issue.Message}
	}

	seen := make(map[domain.SeatClaim]bool)
	for i, leg := range plan.Legs {
		field := fmt.Sprintf("plan.legs[%d]", i)
		switch {
		case !leg.Mode.Valid():
			return &domain.ValidationError{Field: field + ".mode", Message: "must be flight or orbital"}
		case leg.Provider == "":
			return &domain.ValidationError{Field: field + ".provider", Message: "is required"}
		case leg.Origin == "" || leg.Destination == "":
			return &domain.ValidationError{Field: field, Message: "origin and destination are required"}
		case leg.DurationMinutes < 0:
			return &domain.ValidationError{Field: field + ".duration_minutes", Message: "must not be negative"}
		}
		if leg.SeatNumber == "" {
			continue
		}
		claim := domain.SeatClaim{FlightID: leg.FlightID(), SeatNumber: leg.SeatNumber}
		if seen[claim] {
			return &domain.ValidationError{Field: field + ".seat_number", Message: "seat is requested twice"}
		}
		seen[claim] = true
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, refund float64) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		BookingID:        booking.ID,
		OwnerID:          booking.OwnerID,
		Status:           string(booking.Status),
		TotalPriceGBP:    booking.TotalPriceGBP,
		RefundAmount:     refund,
		PaymentReference: booking.PaymentReference,
		OccurredAt:       booking.UpdatedAt,
	}
	if booking.Passenger != nil {
		event.Email = booking.Passenger.Email
		event.FullName = booking.Passenger.FullName
	}
	if booking.HoldExpiresAt != nil {
		event.HoldExpiresAt = *booking.HoldExpiresAt
	}

	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		log.Printf("WARNING: Failed to publish %s event for booking %s: %v", eventType, booking.ID, err)
		return
	}
	if s.notificationsTopic != "" && event.Email != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			log.Printf("WARNING: Failed to publish %s notification for booking %s: %v", eventType, booking.ID, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
