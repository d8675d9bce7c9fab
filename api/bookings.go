package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	Plan   *domain.Plan `json:"plan"`
	UserID string       `json:"user_id"`
}

type confirmBookingRequest struct {
	PassengerData *domain.Passenger `json:"passenger_data"`
}

type cancelResponse struct {
	Message       string  `json:"message"`
	RefundAmount  float64 `json:"refund_amount"`
	RefundPending bool    `json:"refund_pending,omitempty"`
}

type listResponse struct {
	Bookings   []bookingView `json:"bookings"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/confirm", h.confirm)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Plan == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan is required"})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		Plan:    *req.Plan,
		OwnerID: req.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingView(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	details, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	view := toBookingView(details.Booking)
	view.AuditTrail = toAuditViews(details.AuditTrail)
	c.JSON(http.StatusOK, view)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PassengerData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passenger_data is required"})
		return
	}

	confirmed, err := h.service.ConfirmBooking(c.Request.Context(), c.Param("id"), *req.PassengerData)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentDeclined) && confirmed != nil {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "booking": toBookingView(confirmed)})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingView(confirmed))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	result, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelResponse{
		Message:       result.Message,
		RefundAmount:  result.RefundAmount,
		RefundPending: result.RefundPending,
	})
}

func (h *BookingHandler) list(c *gin.Context) {
	input := booking.ListInput{
		Status:  c.Query("status"),
		OwnerID: c.Query("user_id"),
		Cursor:  c.Query("cursor"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		input.Limit = limit
	}

	result, err := h.service.ListBookings(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := listResponse{Bookings: make([]bookingView, 0, len(result.Bookings)), NextCursor: result.NextCursor}
	for i := range result.Bookings {
		resp.Bookings = append(resp.Bookings, toBookingView(&result.Bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}
