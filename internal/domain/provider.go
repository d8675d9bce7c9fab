package domain

import (
	"encoding/json"
	"math"
	"time"
)

const (
	ToolRoutes       = "routes.get"
	ToolPricing      = "pricing.calculate"
	ToolAvailability = "availability.check"
	ToolRisk         = "risk.assess"
	ToolValidation   = "validation.check_schema"
)

const (
	AvailabilityStatusAvailable = "available"
	AvailabilityStatusLimited   = "limited"
	AvailabilityStatusSoldOut   = "sold_out"
)

const (
	RecommendationAvoid      = "avoid"
	RecommendationAcceptable = "acceptable"
)

const DefaultMaxLayovers = 2

type RoutesRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	MaxLayovers *int   `json:"max_layovers,omitempty"`
}

func (r RoutesRequest) Layovers() int {
	if r.MaxLayovers == nil {
		return DefaultMaxLayovers
	}
	return *r.MaxLayovers
}

func (r RoutesRequest) Validate() error {
	if len(r.Origin) != 3 {
		return &ValidationError{Field: "origin", Message: "must be a 3 letter code"}
	}
	if len(r.Destination) != 3 {
		return &ValidationError{Field: "destination", Message: "must be a 3 letter code"}
	}
	if n := r.Layovers(); n < 0 || n > 6 {
		return &ValidationError{Field: "max_layovers", Message: "must be between 0 and 6"}
	}
	return nil
}

type RouteLeg struct {
	Origin          string        `json:"origin"`
	Destination     string        `json:"destination"`
	Mode            TransportMode `json:"mode"`
	Provider        string        `json:"provider"`
	DurationMinutes int           `json:"duration_minutes"`
}

type Itinerary struct {
	Legs []RouteLeg `json:"legs"`
}

type RoutesResponse struct {
	Itineraries []Itinerary `json:"itineraries"`
}

type PricingRequest struct {
	Origin         string        `json:"origin"`
	Destination    string        `json:"destination"`
	Mode           TransportMode `json:"mode"`
	Provider       string        `json:"provider"`
	Date           *time.Time    `json:"date,omitempty"`
	PassengerCount int           `json:"passenger_count,omitempty"`
}

func (r PricingRequest) Passengers() int {
	if r.PassengerCount <= 0 {
		return 1
	}
	return r.PassengerCount
}

// PricingQuote drops zero-valued optional fields on the wire, which is how a
// quote with missing fields is represented.
type PricingQuote struct {
	BasePrice  float64 `json:"base_price,omitempty"`
	Taxes      float64 `json:"taxes,omitempty"`
	Fees       float64 `json:"fees,omitempty"`
	Total      float64 `json:"total"`
	Currency   string  `json:"currency,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
}

// Validate rejects quotes that are well formed but cannot be trusted.
func (q PricingQuote) Validate() error {
	if q.Currency == "" || q.BasePrice == 0 {
		return Malformed(ToolPricing, "quote is missing required fields")
	}
	if q.Total < 0 || q.BasePrice < 0 || q.Taxes < 0 || q.Fees < 0 {
		return Malformed(ToolPricing, "negative price %.2f", q.Total)
	}
	return nil
}

type AvailabilityRequest struct {
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Depart      time.Time     `json:"depart"`
	Mode        TransportMode `json:"mode"`
	Provider    string        `json:"provider"`
}

type AvailabilityReport struct {
	AvailableSeats int    `json:"available_seats"`
	BookedCount    int    `json:"booked_count"`
	HoldCount      int    `json:"hold_count"`
	TotalCapacity  int    `json:"total_capacity,omitempty"`
	Status         string `json:"status"`
}

func (a AvailabilityReport) SoldOut() bool {
	return a.AvailableSeats == 0
}

func (a AvailabilityReport) Validate() error {
	if a.AvailableSeats < 0 || a.BookedCount < 0 || a.HoldCount < 0 {
		return Malformed(ToolAvailability, "negative seat counts")
	}
	if a.TotalCapacity == 0 {
		if a.Status == AvailabilityStatusSoldOut && a.AvailableSeats == 0 {
			return nil
		}
		return Malformed(ToolAvailability, "total capacity missing")
	}
	if a.BookedCount+a.HoldCount > a.TotalCapacity {
		return Malformed(ToolAvailability, "booked %d + held %d exceed capacity %d", a.BookedCount, a.HoldCount, a.TotalCapacity)
	}
	if a.AvailableSeats != a.TotalCapacity-a.BookedCount-a.HoldCount {
		return Malformed(ToolAvailability, "available seats %d inconsistent with counts", a.AvailableSeats)
	}
	return nil
}

type RiskRequest struct {
	Provider    string         `json:"provider"`
	Mode        TransportMode  `json:"mode"`
	Route       string         `json:"route"`
	Date        *time.Time     `json:"date,omitempty"`
	WeatherData map[string]any `json:"weather_data,omitempty"`
}

// SevereWeather reads the optional "severe" flag of the weather payload.
func (r RiskRequest) SevereWeather() bool {
	if r.WeatherData == nil {
		return false
	}
	switch v := r.WeatherData["severe"].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != "" && v != "false" && v != "0"
	case nil:
		return false
	default:
		return true
	}
}

type RiskFactor struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
}

type RiskAssessment struct {
	RiskScore      float64      `json:"risk_score"`
	Factors        []RiskFactor `json:"factors"`
	Recommendation string       `json:"recommendation,omitempty"`
}

// MarshalJSON keeps an empty factor list on the wire and leaves the key out
// only when Factors is nil.
func (r RiskAssessment) MarshalJSON() ([]byte, error) {
	type wire RiskAssessment
	if r.Factors != nil {
		return json.Marshal(wire(r))
	}
	return json.Marshal(struct {
		RiskScore      float64 `json:"risk_score"`
		Recommendation string  `json:"recommendation,omitempty"`
	}{r.RiskScore, r.Recommendation})
}

func (r RiskAssessment) Validate() error {
	if math.IsNaN(r.RiskScore) || r.RiskScore < 0 || r.RiskScore > 1 {
		return Malformed(ToolRisk, "risk score %.3f outside [0,1]", r.RiskScore)
	}
	if r.Recommendation == "" || r.Factors == nil {
		return Malformed(ToolRisk, "assessment is missing required fields")
	}
	return nil
}

type ValidationRequest struct {
	Object     map[string]any `json:"object"`
	SchemaName string         `json:"schema_name"`
}

type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors"`
}

type ProviderHealth struct {
	OK    bool `json:"ok"`
	Chaos bool `json:"chaos"`
}

type ProviderCallLog struct {
	ID           int64           `json:"id"`
	ToolName     string          `json:"tool_name"`
	Input        json.RawMessage `json:"input,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	Success      bool            `json:"success"`
	Timestamp    time.Time       `json:"timestamp"`
}
