package dataservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/vietddude/weatherwatch/internal/core/domain"
	"github.com/vietddude/weatherwatch/internal/infra/storage/memory"
)

type failingRepo struct{}

func (failingRepo) Save(context.Context, domain.Measurement) error { return errors.New("down") }
func (failingRepo) Latest(context.Context) (*domain.Measurement, error) {
	return nil, errors.New("connection refused")
}
func (failingRepo) AverageSince(context.Context, time.Duration) (*float64, error) {
	return nil, errors.New("connection refused")
}

func startServer(t *testing.T, srv *Server) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := NewClient(
		ClientConfig{Address: "passthrough:///bufnet", Timeout: 2 * time.Second},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDataService_Current(t *testing.T) {
	repo := memory.NewMeasurementRepo()
	want := domain.Measurement{SourceID: "openweather/Paris", Timestamp: 1_700_000_000, Temperature: 21.5, Humidity: 60, Pressure: 1012}
	require.NoError(t, repo.Save(context.Background(), want))

	client := startServer(t, NewServer(repo, nil))

	got, err := client.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDataService_Averages(t *testing.T) {
	now := time.Now()
	repo := memory.NewMeasurementRepo()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: now.Add(-time.Hour).Unix(), Temperature: 20}))
	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: now.Add(-2 * time.Hour).Unix(), Temperature: 22}))
	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: now.Add(-72 * time.Hour).Unix(), Temperature: 12}))

	client := startServer(t, NewServer(repo, nil))

	day, err := client.Average(ctx, domain.WindowDay)
	require.NoError(t, err)
	assert.InDelta(t, 21.0, day, 1e-9)

	week, err := client.Average(ctx, domain.WindowWeek)
	require.NoError(t, err)
	assert.InDelta(t, 18.0, week, 1e-9)
}

func TestDataService_EmptyStoreIsNoData(t *testing.T) {
	client := startServer(t, NewServer(memory.NewMeasurementRepo(), nil))

	_, err := client.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoData)

	_, err = client.Average(context.Background(), domain.WindowWeek)
	assert.ErrorIs(t, err, domain.ErrNoData)
	assert.False(t, IsRetryable(err))
}

func TestDataService_StoreFailureIsInternal(t *testing.T) {
	client := startServer(t, NewServer(failingRepo{}, nil))

	_, err := client.Current(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoData)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
	assert.True(t, IsRetryable(err))
}

func TestClient_UnsupportedWindow(t *testing.T) {
	client := startServer(t, NewServer(memory.NewMeasurementRepo(), nil))
	_, err := client.Average(context.Background(), domain.Window("month"))
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no data", domain.ErrNoData, false},
		{"canceled", context.Canceled, false},
		{"canceled status", fmt.Errorf("data service current: %w", status.Error(codes.Canceled, "context canceled")), false},
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), true},
		{"deadline", status.Error(codes.DeadlineExceeded, "timeout"), true},
		{"wrapped unavailable", fmt.Errorf("data service current: %w", status.Error(codes.Unavailable, "x")), true},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad"), false},
		{"plain error", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
