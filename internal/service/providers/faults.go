package providers

import "github.com/Domenick1991/orbitaltravel/internal/domain"

// Malformed payloads returned by the fault bands. They decode cleanly but
// carry values a careful caller must reject.

func negativePriceQuote() domain.PricingQuote {
	return domain.PricingQuote{BasePrice: -100, Taxes: 20, Fees: 10, Total: -70, Currency: "GBP"}
}

func partialQuote() domain.PricingQuote {
	return domain.PricingQuote{Total: 250}
}

func soldOutReport() domain.AvailabilityReport {
	return domain.AvailabilityReport{AvailableSeats: 0, BookedCount: 150, HoldCount: 0, Status: domain.AvailabilityStatusSoldOut}
}

func inconsistentReport() domain.AvailabilityReport {
	return domain.AvailabilityReport{AvailableSeats: 10, BookedCount: 50, HoldCount: 100, Status: domain.AvailabilityStatusAvailable}
}

func riskTooHigh() domain.RiskAssessment {
	return domain.RiskAssessment{
		RiskScore:      1.5,
		Factors:        []domain.RiskFactor{{Name: "unknown", Contribution: 0.8}},
		Recommendation: domain.RecommendationAvoid,
	}
}

func riskTooLow() domain.RiskAssessment {
	return domain.RiskAssessment{RiskScore: -0.2, Factors: []domain.RiskFactor{}, Recommendation: "safe"}
}

func partialRisk() domain.RiskAssessment {
	return domain.RiskAssessment{RiskScore: 0.3}
}

func spuriousInvalid() domain.ValidationResult {
	return domain.ValidationResult{
		Valid:  false,
		Errors: []domain.ValidationIssue{{Path: "unknown", Message: "Spurious validation error"}},
	}
}
