package dataservice

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vietddude/weatherwatch/internal/core/domain"
	"github.com/vietddude/weatherwatch/internal/metrics"
)

// ClientConfig holds data service client settings.
type ClientConfig struct {
	Address string        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client performs single-shot calls against the data service. It does not
// retry; callers wrap it in their own policy.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewClient creates a client for cfg.Address. The connection is established
// lazily on the first call.
func NewClient(cfg ClientConfig, opts ...grpc.DialOption) (*Client, error) {
	target := cfg.Address
	var dialOpts []grpc.DialOption

	if strings.HasPrefix(target, "https://") || strings.HasSuffix(target, ":443") {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))
		target = strings.TrimPrefix(target, "https://")
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", target, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Current returns the latest stored measurement.
func (c *Client) Current(ctx context.Context) (domain.Measurement, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, string(domain.OpCurrent), methodCurrent, out); err != nil {
		return domain.Measurement{}, err
	}

	f := out.GetFields()
	return domain.Measurement{
		SourceID:    f["source_id"].GetStringValue(),
		Timestamp:   int64(f["timestamp"].GetNumberValue()),
		Temperature: f["temperature"].GetNumberValue(),
		Humidity:    f["humidity"].GetNumberValue(),
		Pressure:    f["pressure"].GetNumberValue(),
	}, nil
}

// Average returns the mean temperature over w.
func (c *Client) Average(ctx context.Context, w domain.Window) (float64, error) {
	var method string
	switch w {
	case domain.WindowDay:
		method = methodAverageDay
	case domain.WindowWeek:
		method = methodAverageWeek
	default:
		return 0, fmt.Errorf("unsupported window %q", w)
	}

	out := new(wrapperspb.DoubleValue)
	if err := c.invoke(ctx, "average_"+string(w), method, out); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) invoke(ctx context.Context, op, method string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	metrics.UpstreamCallsTotal.WithLabelValues("dataservice", op).Inc()
	err := c.conn.Invoke(ctx, method, &emptypb.Empty{}, out)
	if err == nil {
		return nil
	}
	if isNoData(err) {
		return domain.ErrNoData
	}
	metrics.UpstreamErrorsTotal.WithLabelValues("dataservice", op).Inc()
	return fmt.Errorf("data service %s: %w", op, err)
}

func isNoData(err error) bool {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.NotFound {
		return false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason() == ReasonNoData
		}
	}
	// A bare NotFound from this service still means an empty store.
	return true
}

// IsRetryable reports whether a data service error is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, domain.ErrNoData) || errors.Is(err, context.Canceled) {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return true
	}
	switch st.Code() {
	case codes.Canceled, codes.InvalidArgument, codes.NotFound, codes.PermissionDenied,
		codes.Unauthenticated, codes.Unimplemented, codes.FailedPrecondition:
		return false
	default:
		return true
	}
}
