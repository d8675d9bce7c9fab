package chaos

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Outcome is the result of one draw. Fault is FaultNone for pass-through.
type Outcome struct {
	Fault Fault
	Delay time.Duration
	Roll  float64
}

type Sleeper func(ctx context.Context, d time.Duration) error

type Option func(*Injector)

// WithSleeper replaces the delay implementation, mostly for tests that draw
// thousands of timeouts.
func WithSleeper(s Sleeper) Option {
	return func(i *Injector) {
		i.sleep = s
	}
}

type Injector struct {
	enabled atomic.Bool
	bands   map[Endpoint][]Band
	sleep   Sleeper

	mu  sync.Mutex
	rng *rand.Rand
}

func New(cfg Config, opts ...Option) (*Injector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	inj := &Injector{
		bands: cfg.Bands,
		sleep: sleepContext,
		rng:   rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
	inj.enabled.Store(cfg.Enabled)
	for _, opt := range opts {
		opt(inj)
	}
	return inj, nil
}

// Disabled returns an injector that always passes through.
func Disabled() *Injector {
	inj, _ := New(Config{Seed: 1})
	return inj
}

func (i *Injector) Enabled() bool {
	return i.enabled.Load()
}

func (i *Injector) SetEnabled(enabled bool) {
	i.enabled.Store(enabled)
}

// Draw picks the outcome of one call. Exactly one random value is consumed
// per call while chaos is on, none while it is off.
func (i *Injector) Draw(ep Endpoint) Outcome {
	if !i.Enabled() {
		return Outcome{}
	}

	i.mu.Lock()
	roll := i.rng.Float64()
	i.mu.Unlock()

	var upper float64
	for _, b := range i.bands[ep] {
		upper += b.Probability
		if roll < upper {
			return Outcome{Fault: b.Fault, Delay: b.Delay, Roll: roll}
		}
	}
	return Outcome{Roll: roll}
}

// Shuffle permutes n elements with the injector's random source.
func (i *Injector) Shuffle(n int, swap func(a, b int)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.rng.Shuffle(n, swap)
}

// Wait blocks for the outcome's delay. No lock is held while waiting and the
// wait ends early when ctx is done.
func (i *Injector) Wait(ctx context.Context, o Outcome) error {
	return i.sleep(ctx, o.Delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
