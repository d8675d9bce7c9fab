package simulation

import (
	"fmt"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
)

const (
	flightCapacity  = 200
	orbitalCapacity = 50
	limitedBelow    = 10
)

func Capacity(mode domain.TransportMode) int {
	if mode == domain.ModeFlight {
		return flightCapacity
	}
	return orbitalCapacity
}

func Availability(req domain.AvailabilityRequest) domain.AvailabilityReport {
	key := fmt.Sprintf("%s:%s:%s", req.Provider, req.Origin, req.Destination)

	capacity := Capacity(req.Mode)
	booked := hexSlice(key, 0, 4) % capacity
	held := hexSlice(key, 4, 8) % (capacity - booked)
	available := capacity - booked - held

	status := domain.AvailabilityStatusAvailable
	if available <= limitedBelow {
		status = domain.AvailabilityStatusLimited
	}

	return domain.AvailabilityReport{
		AvailableSeats: available,
		BookedCount:    booked,
		HoldCount:      held,
		TotalCapacity:  capacity,
		Status:         status,
	}
}
