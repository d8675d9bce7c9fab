package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/orbitaltravel/config"
	"github.com/Domenick1991/orbitaltravel/internal/cache"
	"github.com/Domenick1991/orbitaltravel/internal/chaos"
	"github.com/Domenick1991/orbitaltravel/internal/kafka"
	"github.com/Domenick1991/orbitaltravel/internal/providerclient"
	"github.com/Domenick1991/orbitaltravel/internal/repository"
	"github.com/Domenick1991/orbitaltravel/internal/service/booking"
	"github.com/Domenick1991/orbitaltravel/internal/service/providers"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage is the persistence chosen by database.driver.
type Storage struct {
	Bookings repository.BookingRepository
	Seats    repository.SeatRepository
	Calls    providers.CallLog
	Checks   []Check
	close    func()
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage connects to postgres, or builds the in-memory store when the
// driver is "memory".
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Database.Driver {
	case "memory":
		store := repository.NewMemoryStore()
		return &Storage{
			Bookings: store,
			Seats:    store,
			Calls:    repository.NewMemoryCallLog(cfg.Providers.CallLogSize),
		}, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Database.Migrate {
			if err := repository.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &Storage{
			Bookings: repository.NewBookingRepository(pool),
			Seats:    repository.NewSeatRepository(pool),
			Calls:    repository.NewCallLogRepository(pool),
			Checks:   []Check{{Name: "postgres", Fn: pool.Ping}},
			close:    pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// NewInjector builds the fault injector from the chaos section.
func NewInjector(cfg *config.Config) (*chaos.Injector, error) {
	chaosCfg, err := chaos.FromConfig(cfg.Chaos)
	if err != nil {
		return nil, err
	}
	return chaos.New(chaosCfg)
}

// BookingDeps are the optional collaborators of the booking service. Close
// releases whatever was opened.
type BookingDeps struct {
	Service *booking.BookingService
	Checks  []Check
	closers []func() error
}

func (d *BookingDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Printf("WARNING: close: %v", err)
		}
	}
}

// NewBookingDeps wires the booking service from configuration: redis locks
// when redis.addr is set, kafka events when brokers are listed, and provider
// verification when booking.verify_plan is on.
func NewBookingDeps(cfg *config.Config, store *Storage) (*BookingDeps, error) {
	deps := &BookingDeps{Checks: append([]Check(nil), store.Checks...)}
	opts := []booking.BookingServiceOption{
		booking.WithHoldTTL(cfg.Booking.HoldTTL()),
		booking.WithEnforceHoldExpiry(cfg.Booking.EnforceHoldExpiry),
		booking.WithListLimits(cfg.Booking.ListDefaultLimit, cfg.Booking.ListMaxLimit),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	}

	if cfg.Redis.Addr != "" {
		locks := cache.NewRedisCache(cfg.Redis)
		opts = append(opts, booking.WithLocker(locks, cfg.Booking.LockTTL()))
		deps.Checks = append(deps.Checks, Check{Name: "redis", Fn: locks.Ping})
		deps.closers = append(deps.closers, locks.Close)
	}

	var producer booking.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		p := kafka.NewProducer(cfg.Kafka.Brokers)
		producer = p
		deps.Checks = append(deps.Checks, Check{Name: "kafka", Fn: p.CheckConnection})
		deps.closers = append(deps.closers, p.Close)
	}

	if cfg.Booking.VerifyPlan {
		gateway, closeGateway, err := newGateway(cfg, store)
		if err != nil {
			deps.Close()
			return nil, err
		}
		if closeGateway != nil {
			deps.closers = append(deps.closers, closeGateway)
		}
		opts = append(opts, booking.WithVerification(gateway, cfg.Providers.Timeout(), cfg.Booking.PriceTolerance))
	}

	deps.Service = booking.NewBookingService(
		store.Bookings,
		store.Seats,
		booking.NewSimulatedPayments(),
		producer,
		cfg.Kafka.BookingEventsTopic,
		opts...,
	)
	return deps, nil
}

// newGateway dials the provider service when an address is configured and
// otherwise runs the simulation in process.
func newGateway(cfg *config.Config, store *Storage) (booking.ProviderGateway, func() error, error) {
	if addr := cfg.Providers.ClientAddress; addr != "" {
		client, err := providerclient.Dial(addr)
		if err != nil {
			return nil, nil, fmt.Errorf("dial providers %s: %w", addr, err)
		}
		return client, client.Close, nil
	}

	injector, err := NewInjector(cfg)
	if err != nil {
		return nil, nil, err
	}
	return providers.NewProviderService(injector, store.Calls), nil, nil
}

// SweepHolds releases lapsed seat holds every interval until ctx ends.
func SweepHolds(ctx context.Context, svc *booking.BookingService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			released, err := svc.ReleaseExpiredHolds(ctx)
			if err != nil {
				log.Printf("release expired holds error: %v", err)
				continue
			}
			if len(released) > 0 {
				log.Printf("released %d expired seat holds", len(released))
			}
		case <-ctx.Done():
			return
		}
	}
}
