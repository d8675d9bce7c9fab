package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewSeatHandler(mockService)

	flightID := "earth-air:LHR:KEF:2026-11-02T08:00:00Z"
	c, w := newTestContext("GET", "/api/seats?flight_id="+flightID, nil)

	held := created.Add(5 * time.Minute)
	seats := []domain.Seat{
		{ID: 1, FlightID: flightID, SeatNumber: "12A", Status: domain.SeatStatusHeld, BookingID: "b-1", HeldUntil: &held},
		{ID: 2, FlightID: flightID, SeatNumber: "12B", Status: domain.SeatStatusAvailable},
	}
	mockService.On("SeatMap", c.Request.Context(), flightID).Return(seats, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		FlightID string     `json:"flight_id"`
		Seats    []seatView `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, flightID, response.FlightID)
	require.Len(t, response.Seats, 2)
	assert.Equal(t, "held", response.Seats[0].Status)
	require.NotNil(t, response.Seats[0].HeldUntil)
	assert.Equal(t, "2026-10-19T12:05:00Z", *response.Seats[0].HeldUntil)
	assert.Nil(t, response.Seats[1].HeldUntil)

	mockService.AssertExpectations(t)
}

func TestSeatHandler_listRequiresFlight(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewSeatHandler(mockService)

	c, w := newTestContext("GET", "/api/seats", nil)
	mockService.On("SeatMap", c.Request.Context(), "").
		Return(nil, &domain.ValidationError{Field: "flight_id", Message: "is required"})

	handler.list(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "flight_id")
}

func TestSeatHandler_Register(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	mockService := &MockBookingUseCase{}
	NewSeatHandler(mockService).Register(router.Group("/api/seats"))

	routes := router.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "GET", routes[0].Method)
	assert.Equal(t, "/api/seats", routes[0].Path)
}
