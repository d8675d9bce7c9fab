// Package providerclient reaches the provider simulation over gRPC.
package providerclient

import (
	"context"
	"fmt"

	"github.com/Domenick1991/orbitaltravel/internal/api/providers_service_api"
	"github.com/Domenick1991/orbitaltravel/internal/api/rpc"
	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

type Client struct {
	conn   grpc.ClientConnInterface
	closer func() error
}

// Dial creates a client for the provider service at addr. The connection is
// established lazily on the first call.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial providers %s: %w", addr, err)
	}
	return &Client{conn: conn, closer: conn.Close}, nil
}

func New(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *Client) Routes(ctx context.Context, req domain.RoutesRequest) (*domain.RoutesResponse, error) {
	var out domain.RoutesResponse
	if err := c.invoke(ctx, providers_service_api.MethodGetRoutes, domain.ToolRoutes, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Pricing(ctx context.Context, req domain.PricingRequest) (*domain.PricingQuote, error) {
	var out domain.PricingQuote
	if err := c.invoke(ctx, providers_service_api.MethodCalculatePricing, domain.ToolPricing, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Availability(ctx context.Context, req domain.AvailabilityRequest) (*domain.AvailabilityReport, error) {
	var out domain.AvailabilityReport
	if err := c.invoke(ctx, providers_service_api.MethodCheckAvailability, domain.ToolAvailability, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Risk(ctx context.Context, req domain.RiskRequest) (*domain.RiskAssessment, error) {
	var out domain.RiskAssessment
	if err := c.invoke(ctx, providers_service_api.MethodAssessRisk, domain.ToolRisk, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ValidateSchema(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResult, error) {
	var out domain.ValidationResult
	if err := c.invoke(ctx, providers_service_api.MethodCheckSchema, domain.ToolValidation, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*domain.ProviderHealth, error) {
	var out domain.ProviderHealth
	if err := c.invoke(ctx, providers_service_api.MethodHealth, "health", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) invoke(ctx context.Context, method, tool string, req, out any) error {
	in, err := rpc.ToStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, rpc.FullMethod(providers_service_api.ServiceName, method), in, resp); err != nil {
		return rpc.UpstreamError(tool, err)
	}
	if err := rpc.FromStruct(resp, out); err != nil {
		return domain.Malformed(tool, "%v", err)
	}
	return nil
}
