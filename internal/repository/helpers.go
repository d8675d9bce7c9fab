package repository

import (
	"encoding/json"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
)

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func passengerJSON(p *domain.Passenger) []byte {
	if p == nil {
		return nil
	}
	data, _ := json.Marshal(p)
	return data
}

func objectJSON(m map[string]any) []byte {
	if m == nil {
		return nil
	}
	data, _ := json.Marshal(m)
	return data
}

func decodeObject(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// paginate trims a result fetched with limit+1 rows and derives the cursor
// of the next page from the last row kept.
func paginate(bookings []domain.Booking, limit int) *domain.BookingPage {
	page := &domain.BookingPage{Bookings: bookings}
	if limit > 0 && len(bookings) > limit {
		page.Bookings = bookings[:limit]
		last := page.Bookings[limit-1]
		page.Next = &domain.PageCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return page
}
