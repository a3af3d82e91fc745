package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type storeMock struct {
	Store
	pingFn func(ctx context.Context) error
}

func (m *storeMock) Ping(ctx context.Context) error {
	return m.pingFn(ctx)
}

func TestHealthServerCheck(t *testing.T) {
	store := &storeMock{pingFn: func(context.Context) error { return nil }}
	health := NewHealthServer(store)

	resp, err := health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())

	store.pingFn = func(context.Context) error { return unavailable(errors.New("connection refused")) }
	resp, err = health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestHealthServerCheckCanceled(t *testing.T) {
	store := &storeMock{pingFn: func(ctx context.Context) error { return unavailable(ctx.Err()) }}
	health := NewHealthServer(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := health.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.Nil(t, resp)
	require.Equal(t, codes.Canceled, status.Code(err))
}
