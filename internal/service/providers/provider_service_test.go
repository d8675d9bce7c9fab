package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/chaos"
	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/repository"
	"github.com/Domenick1991/orbitaltravel/internal/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type MockCallLog struct {
	mock.Mock
}

func (m *MockCallLog) Record(ctx context.Context, entry domain.ProviderCallLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCallLog) Recent(ctx context.Context, limit int) ([]domain.ProviderCallLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.ProviderCallLog), args.Error(1)
}

// forced returns an injector that always lands on fault for ep.
func forced(t *testing.T, ep chaos.Endpoint, fault chaos.Fault, opts ...chaos.Option) *chaos.Injector {
	t.Helper()
	inj, err := chaos.New(chaos.Config{
		Enabled: true,
		Seed:    7,
		Bands:   map[chaos.Endpoint][]chaos.Band{ep: {{Fault: fault, Probability: 1}}},
	}, opts...)
	require.NoError(t, err)
	return inj
}

func pricingRequest() domain.PricingRequest {
	return domain.PricingRequest{Origin: "LHR", Destination: "JFK", Mode: domain.ModeFlight, Provider: "earth-air", Date: &monday}
}

func availabilityRequest() domain.AvailabilityRequest {
	return domain.AvailabilityRequest{Origin: "LHR", Destination: "JFK", Depart: monday, Mode: domain.ModeFlight, Provider: "earth-air"}
}

func TestProviderService_DisabledMatchesGenerators(t *testing.T) {
	svc := NewProviderService(nil, nil)
	ctx := context.Background()

	quote, err := svc.Pricing(ctx, pricingRequest())
	require.NoError(t, err)
	expected := simulation.Price(pricingRequest())
	assert.Equal(t, expected.Total, quote.Total)
	assert.Equal(t, expected.BasePrice, quote.BasePrice)

	report, err := svc.Availability(ctx, availabilityRequest())
	require.NoError(t, err)
	assert.Equal(t, simulation.Availability(availabilityRequest()), *report)
	assert.NoError(t, report.Validate())

	routes, err := svc.Routes(ctx, domain.RoutesRequest{Origin: "LHR", Destination: "JFK"})
	require.NoError(t, err)
	assert.Len(t, routes.Itineraries, 4)

	risk, err := svc.Risk(ctx, domain.RiskRequest{Provider: "earth-air", Mode: domain.ModeFlight, Route: "LHR-JFK"})
	require.NoError(t, err)
	assert.NoError(t, risk.Validate())

	result, err := svc.ValidateSchema(ctx, domain.ValidationRequest{SchemaName: "Booking", Object: map[string]any{"id": "b1", "status": "PROPOSED"}})
	require.NoError(t, err)
	assert.True(t, result.Valid)

	assert.Equal(t, domain.ProviderHealth{OK: true, Chaos: false}, svc.Health())
}

func TestProviderService_RoutesRejectsBadRequest(t *testing.T) {
	svc := NewProviderService(nil, nil)

	_, err := svc.Routes(context.Background(), domain.RoutesRequest{Origin: "LONDON", Destination: "JFK"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProviderService_PayloadFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("negative price", func(t *testing.T) {
		svc := NewProviderService(forced(t, chaos.EndpointPricing, chaos.FaultNegativePrice), nil)
		quote, err := svc.Pricing(ctx, pricingRequest())
		require.NoError(t, err)
		assert.Equal(t, -70.0, quote.Total)
		assert.ErrorIs(t, quote.Validate(), domain.ErrMalformedUpstreamResponse)
	})

	t.Run("missing pricing fields", func(t *testing.T) {
		svc := NewProviderService(forced(t, chaos.EndpointPricing, chaos.FaultMissingFields), nil)
		quote, err := svc.Pricing(ctx, pricingRequest())
		require.NoError(t, err)
		assert.Equal(t, 250.0, quote.Total)
		assert.Empty(t, quote.Currency)
		assert.ErrorIs(t, quote.Validate(), domain.ErrMalformedUpstreamResponse)
	})

	t.Run("sold out", func(t *testing.T) {
		svc := NewProviderService(forced(t, chaos.EndpointAvailability, chaos.FaultSoldOut), nil)
		report, err := svc.Availability(ctx, availabilityRequest())
		require.NoError(t, err)
		assert.True(t, report.SoldOut())
		assert.NoError(t, report.Validate())
	})

	t.Run("inconsistent counts", func(t *testing.T) {
		svc := NewProviderService(forced(t, chaos.EndpointAvailability, chaos.FaultInconsistent), nil)
		report, err := svc.Availability(ctx, availabilityRequest())
		require.NoError(t, err)
		assert.ErrorIs(t, report.Validate(), domain.ErrMalformedUpstreamResponse)
	})

	t.Run("risk out of range", func(t *testing.T) {
		svc := NewProviderService(forced(t, chaos.EndpointRisk, chaos.FaultOutOfRangeHigh), nil)
		risk, err := svc.Risk(ctx, domain.RiskRequest{Provider: "earth-air", Mode: domain.ModeFlight})
		require.NoError(t, err)
		assert.Equal(t, 1.5, risk.RiskScore)
		assert.ErrorIs(t, risk.Validate(), domain.ErrMalformedUpstreamResponse)
	})

	t.Run("spurious invalid", func(t *testing.T) {
		svc := NewProviderService(forced(t, chaos.EndpointValidation, chaos.FaultSpuriousInvalid), nil)
		result, err := svc.ValidateSchema(ctx, domain.ValidationRequest{SchemaName: "Booking", Object: map[string]any{"id": "b1", "status": "PAID"}})
		require.NoError(t, err)
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "unknown", result.Errors[0].Path)
	})

	t.Run("truncated routes", func(t *testing.T) {
		svc := NewProviderService(forced(t, chaos.EndpointRoutes, chaos.FaultTruncated), nil)
		routes, err := svc.Routes(ctx, domain.RoutesRequest{Origin: "LHR", Destination: "JFK"})
		require.NoError(t, err)
		assert.Len(t, routes.Itineraries, 2)
	})
}

func TestProviderService_TransportFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable", func(t *testing.T) {
		svc := NewProviderService(forced(t, chaos.EndpointAvailability, chaos.FaultUnavailable), nil)
		_, err := svc.Availability(ctx, availabilityRequest())
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

		var upstream *domain.UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, domain.ToolAvailability, upstream.Tool)
	})

	t.Run("timeout waits out the delay", func(t *testing.T) {
		var slept time.Duration
		sleeper := func(_ context.Context, d time.Duration) error {
			slept = d
			return nil
		}
		inj, err := chaos.New(chaos.Config{
			Enabled: true,
			Seed:    7,
			Bands: map[chaos.Endpoint][]chaos.Band{
				chaos.EndpointPricing: {{Fault: chaos.FaultTimeout, Probability: 1, Delay: 5 * time.Second}},
			},
		}, chaos.WithSleeper(sleeper))
		require.NoError(t, err)

		_, err = NewProviderService(inj, nil).Pricing(ctx, pricingRequest())
		assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
		assert.Equal(t, 5*time.Second, slept)
	})

	t.Run("timeout ends with the context", func(t *testing.T) {
		inj, err := chaos.New(chaos.Config{
			Enabled: true,
			Seed:    7,
			Bands: map[chaos.Endpoint][]chaos.Band{
				chaos.EndpointValidation: {{Fault: chaos.FaultTimeout, Probability: 1, Delay: time.Hour}},
			},
		})
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		start := time.Now()
		_, err = NewProviderService(inj, nil).ValidateSchema(cancelled, domain.ValidationRequest{SchemaName: "Plan"})
		assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestProviderService_RecordsCalls(t *testing.T) {
	calls := repository.NewMemoryCallLog(10)
	svc := NewProviderService(forced(t, chaos.EndpointAvailability, chaos.FaultUnavailable), calls)
	ctx := context.Background()

	_, err := svc.Pricing(ctx, pricingRequest())
	require.NoError(t, err)
	_, err = svc.Availability(ctx, availabilityRequest())
	require.Error(t, err)

	recent, err := svc.RecentCalls(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, domain.ToolAvailability, recent[0].ToolName)
	assert.False(t, recent[0].Success)
	assert.Contains(t, recent[0].ErrorMessage, "unavailable")
	assert.Empty(t, recent[0].Output)

	assert.Equal(t, domain.ToolPricing, recent[1].ToolName)
	assert.True(t, recent[1].Success)
	assert.Contains(t, string(recent[1].Input), `"origin":"LHR"`)
	assert.Contains(t, string(recent[1].Output), `"currency":"GBP"`)
}

func TestProviderService_CallLogFailureDoesNotFailCall(t *testing.T) {
	calls := &MockCallLog{}
	calls.On("Record", mock.Anything, mock.AnythingOfType("domain.ProviderCallLog")).Return(errors.New("disk full"))

	svc := NewProviderService(nil, calls)
	quote, err := svc.Pricing(context.Background(), pricingRequest())

	require.NoError(t, err)
	assert.Equal(t, 142.2, quote.Total)
	calls.AssertExpectations(t)
}

func TestProviderService_HealthReportsChaos(t *testing.T) {
	inj := forced(t, chaos.EndpointRisk, chaos.FaultMissingFields)
	svc := NewProviderService(inj, nil)
	assert.True(t, svc.Health().Chaos)

	inj.SetEnabled(false)
	assert.False(t, svc.Health().Chaos)
}
