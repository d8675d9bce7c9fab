package bookings_service_api

import (
	"context"

	"github.com/Domenick1991/orbitaltravel/internal/api/rpc"
	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/service/booking"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "orbital.bookings.v1.BookingService"

// BookingServiceServer mirrors the HTTP booking API over gRPC with
// google.protobuf.Struct messages.
type BookingServiceServer interface {
	CreateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ConfirmBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method[BookingServiceServer](ServiceName, "CreateBooking", BookingServiceServer.CreateBooking),
		rpc.Method[BookingServiceServer](ServiceName, "GetBooking", BookingServiceServer.GetBooking),
		rpc.Method[BookingServiceServer](ServiceName, "ConfirmBooking", BookingServiceServer.ConfirmBooking),
		rpc.Method[BookingServiceServer](ServiceName, "CancelBooking", BookingServiceServer.CancelBooking),
		rpc.Method[BookingServiceServer](ServiceName, "ListBookings", BookingServiceServer.ListBookings),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orbital/bookings/v1/bookings.proto",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type Server struct {
	bookings booking.BookingUseCase
}

func NewServer(bookings booking.BookingUseCase) *Server {
	return &Server{bookings: bookings}
}

type idRequest struct {
	ID string `json:"id"`
}

type confirmRequest struct {
	ID            string           `json:"id"`
	PassengerData domain.Passenger `json:"passenger_data"`
}

type listRequest struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
}

func (s *Server) CreateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req booking.CreateBookingInput
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	created, err := s.bookings.CreateBooking(ctx, req)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return encode(toPBBooking(created, nil))
}

func (s *Server) GetBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req idRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	details, err := s.bookings.GetBooking(ctx, req.ID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return encode(toPBBooking(details.Booking, details.AuditTrail))
}

func (s *Server) ConfirmBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req confirmRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	confirmed, err := s.bookings.ConfirmBooking(ctx, req.ID, req.PassengerData)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return encode(toPBBooking(confirmed, nil))
}

func (s *Server) CancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req idRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	result, err := s.bookings.CancelBooking(ctx, req.ID)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return encode(map[string]any{
		"message":        result.Message,
		"refund_amount":  result.RefundAmount,
		"refund_pending": result.RefundPending,
		"booking":        toPBBooking(result.Booking, nil),
	})
}

func (s *Server) ListBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	result, err := s.bookings.ListBookings(ctx, booking.ListInput{
		Status:  req.Status,
		OwnerID: req.UserID,
		Limit:   req.Limit,
		Cursor:  req.Cursor,
	})
	if err != nil {
		return nil, rpc.Status(err)
	}

	bookings := make([]pbBooking, 0, len(result.Bookings))
	for i := range result.Bookings {
		bookings = append(bookings, toPBBooking(&result.Bookings[i], nil))
	}
	return encode(map[string]any{"bookings": bookings, "next_cursor": result.NextCursor})
}

func decode(in *structpb.Struct, out any) error {
	if err := rpc.FromStruct(in, out); err != nil {
		return rpc.Status(&domain.ValidationError{Message: err.Error()})
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := rpc.ToStruct(v)
	if err != nil {
		return nil, rpc.Status(err)
	}
	return out, nil
}

var _ BookingServiceServer = (*Server)(nil)
