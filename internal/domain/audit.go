package domain

import "time"

const (
	AuditCreated           = "CREATED"
	AuditStateChange       = "STATE_CHANGE"
	AuditPaymentSuccessful = "PAYMENT_SUCCESSFUL"
	AuditPaymentFailed     = "PAYMENT_FAILED"
	AuditCancelled         = "CANCELLED"
	AuditRefundFailed      = "REFUND_FAILED"
)

const (
	EntityBooking = "booking"
	EntityPayment = "payment"
)

// AuditEntry is append-only. Stores never update or delete a written entry.
type AuditEntry struct {
	ID          int64
	BookingID   string
	EntityType  string
	EntityID    string
	Action      string
	BeforeState map[string]any
	AfterState  map[string]any
	ExtraData   map[string]any
	UserID      string
	Timestamp   time.Time
}

func StatusSnapshot(s BookingStatus) map[string]any {
	return map[string]any{"status": string(s)}
}

// NewTransitionEntry records a single status move of a booking.
func NewTransitionEntry(b *Booking, entity, action string, from, to BookingStatus, extra map[string]any, at time.Time) AuditEntry {
	return AuditEntry{
		BookingID:   b.ID,
		EntityType:  entity,
		EntityID:    b.ID,
		Action:      action,
		BeforeState: StatusSnapshot(from),
		AfterState:  StatusSnapshot(to),
		ExtraData:   extra,
		UserID:      b.OwnerID,
		Timestamp:   at,
	}
}
