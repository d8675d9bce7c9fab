package providers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/chaos"
	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/simulation"
)

type ProviderUseCase interface {
	Routes(ctx context.Context, req domain.RoutesRequest) (*domain.RoutesResponse, error)
	Pricing(ctx context.Context, req domain.PricingRequest) (*domain.PricingQuote, error)
	Availability(ctx context.Context, req domain.AvailabilityRequest) (*domain.AvailabilityReport, error)
	Risk(ctx context.Context, req domain.RiskRequest) (*domain.RiskAssessment, error)
	ValidateSchema(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResult, error)
	RecentCalls(ctx context.Context, limit int) ([]domain.ProviderCallLog, error)
	Health() domain.ProviderHealth
}

// CallLog stores one record per simulated call. It is diagnostics only; a
// failing log never fails the call.
type CallLog interface {
	Record(ctx context.Context, entry domain.ProviderCallLog) error
	Recent(ctx context.Context, limit int) ([]domain.ProviderCallLog, error)
}

type ProviderService struct {
	injector *chaos.Injector
	calls    CallLog
}

func NewProviderService(injector *chaos.Injector, calls CallLog) *ProviderService {
	if injector == nil {
		injector = chaos.Disabled()
	}
	return &ProviderService{injector: injector, calls: calls}
}

func (s *ProviderService) Routes(ctx context.Context, req domain.RoutesRequest) (*domain.RoutesResponse, error) {
	if err := req.Validate(); err != nil {
		s.record(ctx, domain.ToolRoutes, req, nil, err, 0)
		return nil, err
	}
	return invoke(ctx, s, domain.ToolRoutes, chaos.EndpointRoutes, req, func(f chaos.Fault) (domain.RoutesResponse, error) {
		resp := simulation.Routes(req)
		switch f {
		case chaos.FaultTruncated:
			if len(resp.Itineraries) > 2 {
				resp.Itineraries = resp.Itineraries[:2]
			}
		case chaos.FaultShuffled:
			its := resp.Itineraries
			s.injector.Shuffle(len(its), func(a, b int) { its[a], its[b] = its[b], its[a] })
		}
		return resp, nil
	})
}

func (s *ProviderService) Pricing(ctx context.Context, req domain.PricingRequest) (*domain.PricingQuote, error) {
	return invoke(ctx, s, domain.ToolPricing, chaos.EndpointPricing, req, func(f chaos.Fault) (domain.PricingQuote, error) {
		switch f {
		case chaos.FaultNegativePrice:
			return negativePriceQuote(), nil
		case chaos.FaultMissingFields:
			return partialQuote(), nil
		}
		return simulation.Price(req), nil
	})
}

func (s *ProviderService) Availability(ctx context.Context, req domain.AvailabilityRequest) (*domain.AvailabilityReport, error) {
	return invoke(ctx, s, domain.ToolAvailability, chaos.EndpointAvailability, req, func(f chaos.Fault) (domain.AvailabilityReport, error) {
		switch f {
		case chaos.FaultSoldOut:
			return soldOutReport(), nil
		case chaos.FaultInconsistent:
			return inconsistentReport(), nil
		}
		return simulation.Availability(req), nil
	})
}

func (s *ProviderService) Risk(ctx context.Context, req domain.RiskRequest) (*domain.RiskAssessment, error) {
	return invoke(ctx, s, domain.ToolRisk, chaos.EndpointRisk, req, func(f chaos.Fault) (domain.RiskAssessment, error) {
		switch f {
		case chaos.FaultOutOfRangeHigh:
			return riskTooHigh(), nil
		case chaos.FaultOutOfRangeLow:
			return riskTooLow(), nil
		case chaos.FaultMissingFields:
			return partialRisk(), nil
		}
		return simulation.Risk(req), nil
	})
}

func (s *ProviderService) ValidateSchema(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResult, error) {
	return invoke(ctx, s, domain.ToolValidation, chaos.EndpointValidation, req, func(f chaos.Fault) (domain.ValidationResult, error) {
		if f == chaos.FaultSpuriousInvalid {
			return spuriousInvalid(), nil
		}
		return simulation.ValidateSchema(req), nil
	})
}

func (s *ProviderService) RecentCalls(ctx context.Context, limit int) ([]domain.ProviderCallLog, error) {
	if s.calls == nil {
		return []domain.ProviderCallLog{}, nil
	}
	return s.calls.Recent(ctx, limit)
}

func (s *ProviderService) Health() domain.ProviderHealth {
	return domain.ProviderHealth{OK: true, Chaos: s.injector.Enabled()}
}

// invoke draws the call's outcome, applies transport faults itself and hands
// payload faults to produce.
func invoke[T any](ctx context.Context, s *ProviderService, tool string, ep chaos.Endpoint, input any, produce func(chaos.Fault) (T, error)) (*T, error) {
	start := time.Now()
	outcome := s.injector.Draw(ep)

	var (
		result *T
		err    error
	)
	switch outcome.Fault {
	case chaos.FaultTimeout:
		detail := "provider timeout"
		if werr := s.injector.Wait(ctx, outcome); werr != nil {
			detail = werr.Error()
		}
		err = &domain.UpstreamError{Tool: tool, Kind: domain.ErrUpstreamTimeout, Detail: detail}
	case chaos.FaultUnavailable:
		err = &domain.UpstreamError{Tool: tool, Kind: domain.ErrUpstreamUnavailable, Detail: "service unavailable"}
	default:
		v, perr := produce(outcome.Fault)
		if perr != nil {
			err = perr
		} else {
			result = &v
		}
	}

	s.record(ctx, tool, input, result, err, time.Since(start))
	return result, err
}

func (s *ProviderService) record(ctx context.Context, tool string, input, output any, callErr error, elapsed time.Duration) {
	if s.calls == nil {
		return
	}

	entry := domain.ProviderCallLog{
		ToolName:   tool,
		DurationMs: elapsed.Milliseconds(),
		Success:    callErr == nil,
		Timestamp:  time.Now().UTC(),
	}
	entry.Input, _ = json.Marshal(input)
	if callErr != nil {
		entry.ErrorMessage = callErr.Error()
	} else if output != nil {
		entry.Output, _ = json.Marshal(output)
	}

	// Detached from ctx so calls that timed out are still logged.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.calls.Record(logCtx, entry); err != nil {
		log.Printf("WARNING: failed to record %s call: %v", tool, err)
	}
}

var _ ProviderUseCase = (*ProviderService)(nil)
