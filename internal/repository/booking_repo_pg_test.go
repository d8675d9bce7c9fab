package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewSeatRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewSeatRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewCallLogRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewCallLogRepository(pool)
	assert.NotNil(t, repo)
}

func TestSchemaIsEmbedded(t *testing.T) {
	for _, table := range []string{"bookings", "booking_legs", "audit_logs", "seats", "provider_call_logs"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
