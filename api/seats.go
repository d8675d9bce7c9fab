package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/gin-gonic/gin"
)

type SeatMapper interface {
	SeatMap(ctx context.Context, flightID string) ([]domain.Seat, error)
}

type SeatHandler struct {
	service SeatMapper
}

func NewSeatHandler(service SeatMapper) *SeatHandler {
	return &SeatHandler{service: service}
}

func (h *SeatHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
}

func (h *SeatHandler) list(c *gin.Context) {
	flightID := c.Query("flight_id")
	seats, err := h.service.SeatMap(c.Request.Context(), flightID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight_id": flightID, "seats": toSeatViews(seats)})
}
