// Package rpc holds the plumbing shared by the hand-registered gRPC services:
// google.protobuf.Struct payloads and the error to status code mapping.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler serves one unary method of service S.
type Handler[S any] func(srv S, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// Method builds the descriptor for a unary method taking and returning a
// Struct, running the server's interceptor chain the way generated code does.
func Method[S any](service, name string, h Handler[S]) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return h(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(service, name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return h(srv.(S), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ToStruct converts any JSON-encodable value into a Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return out, nil
}

// FromStruct decodes s into out using out's JSON tags. A nil Struct decodes
// as an empty object.
func FromStruct(s *structpb.Struct, out any) error {
	if s == nil {
		s = new(structpb.Struct)
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// Status converts a service error into a gRPC status error.
func Status(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Internal
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrHoldExpired):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, domain.ErrPaymentDeclined):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrSeatUnavailable):
		code = codes.Aborted
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		code = codes.Unavailable
	case errors.Is(err, domain.ErrMalformedUpstreamResponse):
		code = codes.DataLoss
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	}
	return status.Error(code, err.Error())
}

// UpstreamError converts a status returned by a provider call back into the
// domain error the caller expects.
func UpstreamError(tool string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.DeadlineExceeded:
		return &domain.UpstreamError{Tool: tool, Kind: domain.ErrUpstreamTimeout, Detail: st.Message()}
	case codes.Unavailable:
		return &domain.UpstreamError{Tool: tool, Kind: domain.ErrUpstreamUnavailable, Detail: st.Message()}
	case codes.InvalidArgument:
		return &domain.ValidationError{Message: st.Message()}
	case codes.DataLoss:
		return &domain.UpstreamError{Tool: tool, Kind: domain.ErrMalformedUpstreamResponse, Detail: st.Message()}
	case codes.Canceled:
		return context.Canceled
	}
	return fmt.Errorf("%s: %s", tool, st.Message())
}
