package providerclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Domenick1991/orbitaltravel/internal/api/providers_service_api"
	"github.com/Domenick1991/orbitaltravel/internal/chaos"
	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/repository"
	"github.com/Domenick1991/orbitaltravel/internal/service/booking"
	"github.com/Domenick1991/orbitaltravel/internal/service/providers"
	"github.com/Domenick1991/orbitaltravel/internal/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

var monday = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func startServer(t *testing.T, inj *chaos.Injector) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	providers_service_api.RegisterProviderServiceServer(srv, providers_service_api.NewServer(
		providers.NewProviderService(inj, repository.NewMemoryCallLog(100)),
	))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func forced(t *testing.T, ep chaos.Endpoint, fault chaos.Fault, delay time.Duration) *chaos.Injector {
	t.Helper()
	inj, err := chaos.New(chaos.Config{
		Enabled: true,
		Seed:    3,
		Bands:   map[chaos.Endpoint][]chaos.Band{ep: {{Fault: fault, Probability: 1, Delay: delay}}},
	})
	require.NoError(t, err)
	return inj
}

func TestClient_RoundTrip(t *testing.T) {
	client := startServer(t, nil)
	ctx := context.Background()

	req := domain.PricingRequest{Origin: "LHR", Destination: "JFK", Mode: domain.ModeFlight, Provider: "earth-air", Date: &monday}
	quote, err := client.Pricing(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, simulation.Price(req).Total, quote.Total)
	assert.Equal(t, "GBP", quote.Currency)

	availReq := domain.AvailabilityRequest{Origin: "LHR", Destination: "JFK", Depart: monday, Mode: domain.ModeFlight, Provider: "earth-air"}
	report, err := client.Availability(ctx, availReq)
	require.NoError(t, err)
	assert.Equal(t, simulation.Availability(availReq), *report)

	routes, err := client.Routes(ctx, domain.RoutesRequest{Origin: "LHR", Destination: "JFK"})
	require.NoError(t, err)
	assert.Len(t, routes.Itineraries, 4)

	risk, err := client.Risk(ctx, domain.RiskRequest{Provider: "orbitalx", Mode: domain.ModeOrbital, WeatherData: map[string]any{"severe": true}})
	require.NoError(t, err)
	assert.Equal(t, 0.9, risk.RiskScore)
	assert.Equal(t, domain.RecommendationAvoid, risk.Recommendation)

	result, err := client.ValidateSchema(ctx, domain.ValidationRequest{SchemaName: "Plan", Object: map[string]any{"legs": []any{}}})
	require.NoError(t, err)
	assert.False(t, result.Valid)

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.OK)
	assert.False(t, health.Chaos)
}

func TestClient_MapsFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable", func(t *testing.T) {
		client := startServer(t, forced(t, chaos.EndpointAvailability, chaos.FaultUnavailable, 0))
		_, err := client.Availability(ctx, domain.AvailabilityRequest{Origin: "LHR", Destination: "JFK"})
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("provider timeout", func(t *testing.T) {
		client := startServer(t, forced(t, chaos.EndpointRoutes, chaos.FaultTimeout, 0))
		_, err := client.Routes(ctx, domain.RoutesRequest{Origin: "LHR", Destination: "JFK"})
		assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	})

	t.Run("caller deadline", func(t *testing.T) {
		client := startServer(t, forced(t, chaos.EndpointPricing, chaos.FaultTimeout, time.Hour))
		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err := client.Pricing(short, domain.PricingRequest{Origin: "LHR", Destination: "JFK"})
		assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	})

	t.Run("bad request", func(t *testing.T) {
		client := startServer(t, nil)
		_, err := client.Routes(ctx, domain.RoutesRequest{Origin: "X", Destination: "JFK"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("malformed payload survives the wire", func(t *testing.T) {
		client := startServer(t, forced(t, chaos.EndpointPricing, chaos.FaultMissingFields, 0))
		quote, err := client.Pricing(ctx, domain.PricingRequest{Origin: "LHR", Destination: "JFK"})
		require.NoError(t, err)
		assert.Equal(t, 250.0, quote.Total)
		assert.ErrorIs(t, quote.Validate(), domain.ErrMalformedUpstreamResponse)
	})
}

func TestClient_AsBookingGateway(t *testing.T) {
	client := startServer(t, forced(t, chaos.EndpointAvailability, chaos.FaultSoldOut, 0))
	store := repository.NewMemoryStore()
	service := booking.NewBookingService(store, store, booking.NewSimulatedPayments(), nil, "",
		booking.WithVerification(client, time.Second, 0))

	depart := time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC)
	plan := domain.Plan{
		Legs: []domain.PlanLeg{{
			Provider: "earth-air", Mode: domain.ModeFlight, Origin: "LHR", Destination: "JFK",
			DepartAt: depart, ArriveAt: depart.Add(8 * time.Hour), DurationMinutes: 480,
		}},
		Metrics: domain.PlanMetrics{TotalPriceGBP: 142.2},
	}

	_, err := service.CreateBooking(context.Background(), booking.CreateBookingInput{Plan: plan})
	assert.ErrorIs(t, err, domain.ErrSeatUnavailable)
}
