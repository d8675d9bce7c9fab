// Package chaos decides, per provider call, whether to pass the
// deterministic answer through or replace it with a fault.
package chaos

import (
	"fmt"
	"time"

	"github.com/Domenick1991/orbitaltravel/config"
)

type Endpoint string

const (
	EndpointRoutes       Endpoint = "routes"
	EndpointPricing      Endpoint = "pricing"
	EndpointAvailability Endpoint = "availability"
	EndpointRisk         Endpoint = "risk"
	EndpointValidation   Endpoint = "validation"
)

type Fault string

const (
	FaultNone            Fault = ""
	FaultTimeout         Fault = "timeout"
	FaultUnavailable     Fault = "unavailable"
	FaultTruncated       Fault = "truncated"
	FaultShuffled        Fault = "shuffled"
	FaultNegativePrice   Fault = "negative_price"
	FaultMissingFields   Fault = "missing_fields"
	FaultSoldOut         Fault = "sold_out"
	FaultInconsistent    Fault = "inconsistent"
	FaultOutOfRangeHigh  Fault = "out_of_range_high"
	FaultOutOfRangeLow   Fault = "out_of_range_low"
	FaultSpuriousInvalid Fault = "spurious_invalid"
)

// supported lists which faults each endpoint knows how to produce.
var supported = map[Endpoint][]Fault{
	EndpointRoutes:       {FaultTimeout, FaultUnavailable, FaultTruncated, FaultShuffled},
	EndpointPricing:      {FaultTimeout, FaultUnavailable, FaultNegativePrice, FaultMissingFields},
	EndpointAvailability: {FaultTimeout, FaultUnavailable, FaultSoldOut, FaultInconsistent},
	EndpointRisk:         {FaultTimeout, FaultUnavailable, FaultOutOfRangeHigh, FaultOutOfRangeLow, FaultMissingFields},
	EndpointValidation:   {FaultTimeout, FaultUnavailable, FaultSpuriousInvalid},
}

// Band is one slice of the unit interval. Bands of an endpoint are laid out
// back to back in order, so they never overlap.
type Band struct {
	Fault       Fault
	Probability float64
	Delay       time.Duration
}

type Config struct {
	Enabled bool
	Seed    int64
	Bands   map[Endpoint][]Band
}

func DefaultBands() map[Endpoint][]Band {
	return map[Endpoint][]Band{
		EndpointRoutes: {
			{Fault: FaultTimeout, Probability: 0.15},
			{Fault: FaultTruncated, Probability: 0.15},
			{Fault: FaultShuffled, Probability: 0.10},
		},
		EndpointPricing: {
			{Fault: FaultTimeout, Probability: 0.10, Delay: 5 * time.Second},
			{Fault: FaultNegativePrice, Probability: 0.05},
			{Fault: FaultMissingFields, Probability: 0.05},
		},
		EndpointAvailability: {
			{Fault: FaultUnavailable, Probability: 0.05},
			{Fault: FaultSoldOut, Probability: 0.10},
			{Fault: FaultInconsistent, Probability: 0.10},
		},
		EndpointRisk: {
			{Fault: FaultOutOfRangeHigh, Probability: 0.20},
			{Fault: FaultOutOfRangeLow, Probability: 0.10},
			{Fault: FaultMissingFields, Probability: 0.05},
		},
		EndpointValidation: {
			{Fault: FaultTimeout, Probability: 0.10, Delay: 3 * time.Second},
			{Fault: FaultSpuriousInvalid, Probability: 0.05},
		},
	}
}

func DefaultConfig() Config {
	return Config{Bands: DefaultBands()}
}

// FromConfig overlays the YAML table on the defaults. An endpoint listed in
// the file replaces its default bands entirely.
func FromConfig(cfg config.ChaosConfig) (Config, error) {
	out := Config{Enabled: cfg.Enabled, Seed: cfg.Seed, Bands: DefaultBands()}
	for name, bands := range cfg.Endpoints {
		ep := Endpoint(name)
		if _, ok := supported[ep]; !ok {
			return Config{}, fmt.Errorf("chaos: unknown endpoint %q", name)
		}
		converted := make([]Band, 0, len(bands))
		for _, b := range bands {
			converted = append(converted, Band{
				Fault:       Fault(b.Fault),
				Probability: b.Probability,
				Delay:       time.Duration(b.DelaySeconds * float64(time.Second)),
			})
		}
		out.Bands[ep] = converted
	}
	return out, out.Validate()
}

func (c Config) Validate() error {
	for ep, bands := range c.Bands {
		known, ok := supported[ep]
		if !ok {
			return fmt.Errorf("chaos: unknown endpoint %q", ep)
		}
		var sum float64
		for _, b := range bands {
			if b.Probability < 0 {
				return fmt.Errorf("chaos: %s/%s probability %v is negative", ep, b.Fault, b.Probability)
			}
			if b.Delay < 0 {
				return fmt.Errorf("chaos: %s/%s delay is negative", ep, b.Fault)
			}
			if !contains(known, b.Fault) {
				return fmt.Errorf("chaos: endpoint %s cannot produce fault %q", ep, b.Fault)
			}
			sum += b.Probability
		}
		if sum > 1+1e-9 {
			return fmt.Errorf("chaos: %s bands add up to %.3f, more than 1", ep, sum)
		}
	}
	return nil
}

// Probability returns the configured share of calls that land on fault.
func (c Config) Probability(ep Endpoint, fault Fault) float64 {
	var p float64
	for _, b := range c.Bands[ep] {
		if b.Fault == fault {
			p += b.Probability
		}
	}
	return p
}

func contains(faults []Fault, f Fault) bool {
	for _, x := range faults {
		if x == f {
			return true
		}
	}
	return false
}
