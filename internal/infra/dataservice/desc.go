// Package dataservice exposes stored measurements over gRPC and provides the
// client the query facade uses to read them.
//
// Messages are protobuf well-known types, so the service descriptor is
// declared here instead of being generated.
package dataservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "weatherwatch.data.v1.DataService"

	methodCurrent     = "/" + ServiceName + "/Current"
	methodAverageDay  = "/" + ServiceName + "/AverageDay"
	methodAverageWeek = "/" + ServiceName + "/AverageWeek"

	// ReasonNoData is the ErrorInfo reason attached to NotFound responses.
	ReasonNoData = "NO_DATA"
	errorDomain  = "weatherwatch"
)

// DataServer is the server API for the data service.
type DataServer interface {
	Current(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	AverageDay(ctx context.Context, req *emptypb.Empty) (*wrapperspb.DoubleValue, error)
	AverageWeek(ctx context.Context, req *emptypb.Empty) (*wrapperspb.DoubleValue, error)
}

// RegisterDataServer registers srv on s.
func RegisterDataServer(s grpc.ServiceRegistrar, srv DataServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc for the data service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DataServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Current", Handler: currentHandler},
		{MethodName: "AverageDay", Handler: averageDayHandler},
		{MethodName: "AverageWeek", Handler: averageWeekHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "weatherwatch/data/v1/data.proto",
}

func currentHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataServer).Current(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCurrent}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataServer).Current(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func averageDayHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataServer).AverageDay(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAverageDay}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataServer).AverageDay(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func averageWeekHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataServer).AverageWeek(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAverageWeek}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataServer).AverageWeek(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
