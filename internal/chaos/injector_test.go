package chaos

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/Domenick1991/orbitaltravel/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjector_DisabledAlwaysPassesThrough(t *testing.T) {
	inj, err := New(Config{Enabled: false, Seed: 7, Bands: DefaultBands()})
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		assert.Equal(t, FaultNone, inj.Draw(EndpointPricing).Fault)
	}
}

func TestInjector_PricingDistribution(t *testing.T) {
	cfg := Config{Enabled: true, Seed: 42, Bands: DefaultBands()}
	inj, err := New(cfg)
	require.NoError(t, err)

	const samples = 10000
	counts := map[Fault]int{}
	for i := 0; i < samples; i++ {
		counts[inj.Draw(EndpointPricing).Fault]++
	}

	// Five standard deviations of a binomial proportion.
	for _, fault := range []Fault{FaultTimeout, FaultNegativePrice, FaultMissingFields, FaultNone} {
		p := cfg.Probability(EndpointPricing, fault)
		if fault == FaultNone {
			p = 1 - 0.20
		}
		tolerance := 5 * math.Sqrt(p*(1-p)/samples)
		got := float64(counts[fault]) / samples
		assert.InDelta(t, p, got, tolerance, "fault %q", fault)
	}
	assert.Greater(t, counts[FaultNone], 0, "baseline must stay attainable")
}

func TestInjector_SameSeedSameSequence(t *testing.T) {
	a, err := New(Config{Enabled: true, Seed: 99, Bands: DefaultBands()})
	require.NoError(t, err)
	b, err := New(Config{Enabled: true, Seed: 99, Bands: DefaultBands()})
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		assert.Equal(t, a.Draw(EndpointRisk), b.Draw(EndpointRisk))
	}
}

func TestInjector_BandsAreDisjoint(t *testing.T) {
	inj, err := New(Config{Enabled: true, Seed: 3, Bands: DefaultBands()})
	require.NoError(t, err)

	for i := 0; i < 2000; i++ {
		o := inj.Draw(EndpointAvailability)
		switch {
		case o.Roll < 0.05:
			assert.Equal(t, FaultUnavailable, o.Fault)
		case o.Roll < 0.15:
			assert.Equal(t, FaultSoldOut, o.Fault)
		case o.Roll < 0.25:
			assert.Equal(t, FaultInconsistent, o.Fault)
		default:
			assert.Equal(t, FaultNone, o.Fault)
		}
	}
}

func TestInjector_SetEnabled(t *testing.T) {
	inj, err := New(Config{Seed: 1, Bands: map[Endpoint][]Band{
		EndpointPricing: {{Fault: FaultNegativePrice, Probability: 1}},
	}})
	require.NoError(t, err)

	assert.Equal(t, FaultNone, inj.Draw(EndpointPricing).Fault)
	inj.SetEnabled(true)
	assert.Equal(t, FaultNegativePrice, inj.Draw(EndpointPricing).Fault)
}

func TestInjector_WaitHonoursContext(t *testing.T) {
	inj := Disabled()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := inj.Wait(ctx, Outcome{Fault: FaultTimeout, Delay: 5 * time.Second})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestInjector_WithSleeper(t *testing.T) {
	var slept time.Duration
	inj, err := New(DefaultConfig(), WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, inj.Wait(context.Background(), Outcome{Delay: 3 * time.Second}))
	assert.Equal(t, 3*time.Second, slept)
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name  string
		bands map[Endpoint][]Band
		err   string
	}{
		{
			name:  "sum above one",
			bands: map[Endpoint][]Band{EndpointRisk: {{Fault: FaultOutOfRangeHigh, Probability: 0.7}, {Fault: FaultOutOfRangeLow, Probability: 0.4}}},
			err:   "more than 1",
		},
		{
			name:  "negative probability",
			bands: map[Endpoint][]Band{EndpointRisk: {{Fault: FaultOutOfRangeHigh, Probability: -0.1}}},
			err:   "negative",
		},
		{
			name:  "fault not produced by endpoint",
			bands: map[Endpoint][]Band{EndpointRoutes: {{Fault: FaultNegativePrice, Probability: 0.1}}},
			err:   "cannot produce",
		},
		{
			name:  "unknown endpoint",
			bands: map[Endpoint][]Band{"weather": {}},
			err:   "unknown endpoint",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Config{Bands: tc.bands}.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestFromConfig_OverridesEndpoint(t *testing.T) {
	cfg, err := FromConfig(config.ChaosConfig{
		Enabled: true,
		Seed:    5,
		Endpoints: map[string][]config.BandConfig{
			"pricing": {{Fault: "timeout", Probability: 0.5, DelaySeconds: 0.25}},
		},
	})
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, []Band{{Fault: FaultTimeout, Probability: 0.5, Delay: 250 * time.Millisecond}}, cfg.Bands[EndpointPricing])
	assert.Equal(t, DefaultBands()[EndpointRisk], cfg.Bands[EndpointRisk])
}
