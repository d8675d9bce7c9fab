package simulation

import (
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
)

var providerMultipliers = map[string]float64{
	"earth-air": 1.0,
	"northwind": 0.9,
	"orbitalx":  2.0,
	"tulip":     0.85,
}

const (
	flightBaseFare  = 100.0
	orbitalBaseFare = 500.0
	weekendSurge    = 1.3
	taxRate         = 0.20
	flightFee       = 15.0
	orbitalFee      = 25.0
)

func baseFare(mode domain.TransportMode) float64 {
	if mode == domain.ModeOrbital {
		return orbitalBaseFare
	}
	return flightBaseFare
}

func fee(mode domain.TransportMode) float64 {
	if mode == domain.ModeOrbital {
		return orbitalFee
	}
	return flightFee
}

func multiplier(provider string) float64 {
	if m, ok := providerMultipliers[provider]; ok {
		return m
	}
	return 1.0
}

func weekend(t *time.Time) bool {
	if t == nil {
		return false
	}
	d := t.Weekday()
	return d == time.Saturday || d == time.Sunday
}

// RouteVariation is the stable per city pair offset added to the base fare.
func RouteVariation(origin, destination string) int {
	return hexSlice(origin+destination, 0, 4) % 100
}

func Price(req domain.PricingRequest) domain.PricingQuote {
	start := time.Now()

	base := baseFare(req.Mode) * multiplier(req.Provider)
	if weekend(req.Date) {
		base *= weekendSurge
	}
	base += float64(RouteVariation(req.Origin, req.Destination))

	taxes := base * taxRate
	fees := fee(req.Mode)
	total := (base + taxes + fees) * float64(req.Passengers())

	return domain.PricingQuote{
		BasePrice:  round(base, 2),
		Taxes:      round(taxes, 2),
		Fees:       round(fees, 2),
		Total:      round(total, 2),
		Currency:   "GBP",
		DurationMs: time.Since(start).Milliseconds(),
	}
}
