package providers_service_api

import (
	"context"

	"github.com/Domenick1991/orbitaltravel/internal/api/rpc"
	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/service/providers"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "orbital.providers.v1.ProviderService"

const (
	MethodGetRoutes         = "GetRoutes"
	MethodCalculatePricing  = "CalculatePricing"
	MethodCheckAvailability = "CheckAvailability"
	MethodAssessRisk        = "AssessRisk"
	MethodCheckSchema       = "CheckSchema"
	MethodHealth            = "Health"
)

// ProviderServiceServer is the server API of the provider simulation. Every
// message is a google.protobuf.Struct carrying the tool's JSON payload.
type ProviderServiceServer interface {
	GetRoutes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CalculatePricing(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CheckAvailability(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	AssessRisk(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CheckSchema(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Health(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProviderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method[ProviderServiceServer](ServiceName, MethodGetRoutes, ProviderServiceServer.GetRoutes),
		rpc.Method[ProviderServiceServer](ServiceName, MethodCalculatePricing, ProviderServiceServer.CalculatePricing),
		rpc.Method[ProviderServiceServer](ServiceName, MethodCheckAvailability, ProviderServiceServer.CheckAvailability),
		rpc.Method[ProviderServiceServer](ServiceName, MethodAssessRisk, ProviderServiceServer.AssessRisk),
		rpc.Method[ProviderServiceServer](ServiceName, MethodCheckSchema, ProviderServiceServer.CheckSchema),
		rpc.Method[ProviderServiceServer](ServiceName, MethodHealth, ProviderServiceServer.Health),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orbital/providers/v1/providers.proto",
}

func RegisterProviderServiceServer(s grpc.ServiceRegistrar, srv ProviderServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server implements ProviderServiceServer on top of the simulation.
type Server struct {
	providers providers.ProviderUseCase
}

func NewServer(providers providers.ProviderUseCase) *Server {
	return &Server{providers: providers}
}

func (s *Server) GetRoutes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.providers.Routes)
}

func (s *Server) CalculatePricing(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.providers.Pricing)
}

func (s *Server) CheckAvailability(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.providers.Availability)
}

func (s *Server) AssessRisk(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.providers.Risk)
}

func (s *Server) CheckSchema(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.providers.ValidateSchema)
}

func (s *Server) Health(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := rpc.ToStruct(s.providers.Health())
	return out, rpc.Status(err)
}

func serve[Req, Resp any](ctx context.Context, in *structpb.Struct, call func(context.Context, Req) (*Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := rpc.FromStruct(in, &req); err != nil {
		return nil, rpc.Status(&domain.ValidationError{Message: err.Error()})
	}
	resp, err := call(ctx, req)
	if err != nil {
		return nil, rpc.Status(err)
	}
	out, err := rpc.ToStruct(resp)
	return out, rpc.Status(err)
}

var _ ProviderServiceServer = (*Server)(nil)
