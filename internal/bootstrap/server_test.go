package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/repository"
	"github.com/Domenick1991/orbitaltravel/internal/service/booking"
	"github.com/Domenick1991/orbitaltravel/internal/service/providers"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newBookingService() *booking.BookingService {
	store := repository.NewMemoryStore()
	return booking.NewBookingService(store, store, booking.NewSimulatedPayments(), nil, "")
}

func TestRouter_Health(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		router := NewRouter(newBookingService(), Check{Name: "db", Fn: func(context.Context) error { return nil }})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("degraded", func(t *testing.T) {
		router := NewRouter(newBookingService(), Check{Name: "kafka", Fn: func(context.Context) error { return errors.New("no brokers") }})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "no brokers")
	})
}

func TestRouter_BookingFlow(t *testing.T) {
	router := NewRouter(newBookingService())
	depart := time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC)
	plan := domain.Plan{
		Legs: []domain.PlanLeg{{
			Provider: "earth-air", Mode: domain.ModeFlight, Origin: "LHR", Destination: "JFK",
			DepartAt: depart, ArriveAt: depart.Add(7 * time.Hour), DurationMinutes: 420, SeatNumber: "2A",
		}},
		Metrics: domain.PlanMetrics{TotalPriceGBP: 199},
	}
	body, err := json.Marshal(map[string]any{"plan": plan})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(string(body))))
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "PROPOSED", created.Status)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/seats?flight_id="+plan.Legs[0].FlightID(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"seat_number":"2A"`)
	assert.Contains(t, w.Body.String(), `"status":"held"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bookings/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"audit_trail"`)
}

func TestServers_ShutdownOnCancel(t *testing.T) {
	s := NewBookingServers("127.0.0.1:0", newBookingService())
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("servers did not stop")
	}
}

func TestNewProviderServers(t *testing.T) {
	s, err := NewProviderServers(":0", providers.NewProviderService(nil, nil))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"chaos":false}`, w.Body.String())
}
