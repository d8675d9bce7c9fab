package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/orbitaltravel/api"
	"github.com/Domenick1991/orbitaltravel/config"
	bookingsapi "github.com/Domenick1991/orbitaltravel/internal/api/bookings_service_api"
	providersapi "github.com/Domenick1991/orbitaltravel/internal/api/providers_service_api"
	"github.com/Domenick1991/orbitaltravel/internal/service/booking"
	"github.com/Domenick1991/orbitaltravel/internal/service/providers"
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

// Check is a named readiness check reported by the booking service's /healthz.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
}

// Run starts the booking gRPC and HTTP servers and blocks until ctx is
// canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, checks ...Check) error {
	return serve(ctx, cfg.GRPC.Address, NewBookingServers(cfg.HTTP.Address, bookingSvc, checks...))
}

// RunProviders starts the provider simulation over gRPC and plain JSON HTTP.
func RunProviders(ctx context.Context, cfg *config.Config, providerSvc providers.ProviderUseCase) error {
	s, err := NewProviderServers(cfg.Providers.HTTPAddress, providerSvc)
	if err != nil {
		return err
	}
	return serve(ctx, cfg.Providers.GRPCAddress, s)
}

func NewBookingServers(httpAddr string, bookingSvc booking.BookingUseCase, checks ...Check) *Servers {
	grpcSrv := grpc.NewServer()
	bookingsapi.RegisterBookingServiceServer(grpcSrv, bookingsapi.NewServer(bookingSvc))

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           NewRouter(bookingSvc, checks...),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the booking HTTP API.
func NewRouter(bookingSvc booking.BookingUseCase, checks ...Check) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for _, check := range checks {
			if err := check.Fn(ctx); err != nil {
				failed[check.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := router.Group("/api")
	api.NewBookingHandler(bookingSvc).Register(group.Group("/bookings"))
	api.NewSeatHandler(bookingSvc).Register(group.Group("/seats"))
	return router
}

func NewProviderServers(httpAddr string, providerSvc providers.ProviderUseCase) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	providersapi.RegisterProviderServiceServer(grpcSrv, providersapi.NewServer(providerSvc))

	mux := runtime.NewServeMux()
	if err := providersapi.RegisterHTTP(mux, providerSvc); err != nil {
		return nil, fmt.Errorf("register provider routes: %w", err)
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func serve(ctx context.Context, grpcAddr string, s *Servers) error {
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", grpcAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve runs both servers, taking gRPC traffic from lis, until ctx is
// canceled or a server fails.
func (s *Servers) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 2)

	go func() { errCh <- s.grpcServer.Serve(lis) }()
	go func() {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Printf("serving gRPC on %s, HTTP on %s", lis.Addr(), s.httpServer.Addr)

	select {
	case err := <-errCh:
		s.grpcServer.Stop()
		_ = s.httpServer.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
