package simulation

import (
	"math"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
)

var providerRisk = map[string]float64{
	"earth-air": 0.1,
	"northwind": 0.15,
	"orbitalx":  0.4,
	"tulip":     0.12,
}

const (
	defaultProviderRisk = 0.2
	orbitalModeRisk     = 0.3
	flightModeRisk      = 0.1
	severeWeatherRisk   = 0.2
	avoidAbove          = 0.6
)

func Risk(req domain.RiskRequest) domain.RiskAssessment {
	base, ok := providerRisk[req.Provider]
	if !ok {
		base = defaultProviderRisk
	}

	mode := flightModeRisk
	if req.Mode == domain.ModeOrbital {
		mode = orbitalModeRisk
	}

	weather := 0.0
	if req.SevereWeather() {
		weather = severeWeatherRisk
	}

	total := math.Min(base+mode+weather, 1.0)

	factors := []domain.RiskFactor{
		{Name: "provider_reliability", Contribution: base},
		{Name: "transport_mode", Contribution: mode},
	}
	if weather > 0 {
		factors = append(factors, domain.RiskFactor{Name: "weather_conditions", Contribution: weather})
	}

	recommendation := domain.RecommendationAcceptable
	if total > avoidAbove {
		recommendation = domain.RecommendationAvoid
	}

	return domain.RiskAssessment{
		RiskScore:      round(total, 3),
		Factors:        factors,
		Recommendation: recommendation,
	}
}
