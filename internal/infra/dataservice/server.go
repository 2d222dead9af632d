package dataservice

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vietddude/weatherwatch/internal/core/domain"
	"github.com/vietddude/weatherwatch/internal/infra/storage"
)

// Server answers data service calls from the measurement store.
type Server struct {
	repo storage.MeasurementRepository
	log  *slog.Logger

	grpcServer *grpc.Server
}

// NewServer creates a data service backed by repo.
func NewServer(repo storage.MeasurementRepository, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{repo: repo, log: log}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(log)))
	RegisterDataServer(s.grpcServer, s)
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("Data service listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Stop drains in-flight calls and stops the server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) Current(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	m, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "load latest: %v", err)
	}
	if m == nil {
		return nil, noDataError("no measurements stored")
	}

	out, err := structpb.NewStruct(map[string]any{
		"source_id":   m.SourceID,
		"timestamp":   float64(m.Timestamp),
		"temperature": m.Temperature,
		"humidity":    m.Humidity,
		"pressure":    m.Pressure,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode measurement: %v", err)
	}
	return out, nil
}

func (s *Server) AverageDay(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.DoubleValue, error) {
	return s.average(ctx, domain.WindowDay)
}

func (s *Server) AverageWeek(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.DoubleValue, error) {
	return s.average(ctx, domain.WindowWeek)
}

func (s *Server) average(ctx context.Context, w domain.Window) (*wrapperspb.DoubleValue, error) {
	avg, err := s.repo.AverageSince(ctx, w.Duration())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "average %s: %v", w, err)
	}
	if avg == nil {
		return nil, noDataError(fmt.Sprintf("no measurements in the last %s", w))
	}
	return wrapperspb.Double(*avg), nil
}

func noDataError(msg string) error {
	st := status.New(codes.NotFound, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: ReasonNoData,
		Domain: errorDomain,
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// LoggingInterceptor logs every unary call with its status code and latency.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		attrs := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		switch code {
		case codes.OK, codes.NotFound:
			log.Debug("Data service call", attrs...)
		default:
			log.Warn("Data service call failed", append(attrs, "error", err)...)
		}
		return resp, err
	}
}
