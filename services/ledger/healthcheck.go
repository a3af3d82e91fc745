package ledger

import (
	"context"

	"community-points/pkg/errutil"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// HealthServer reports SERVING while the score store answers pings.
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer

	store Store
}

func NewHealthServer(store Store) *HealthServer {
	return &HealthServer{store: store}
}

func (s *HealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if err := s.store.Ping(ctx); err != nil {
		// the caller gave up; report that rather than blaming the store
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errutil.ToGRPCError(ctxErr)
		}
		return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_NOT_SERVING}, nil
	}

	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *HealthServer) Watch(req *grpc_health_v1.HealthCheckRequest, srv grpc_health_v1.Health_WatchServer) error {
	return status.Error(codes.Unimplemented, "Watch method not implemented")
}
