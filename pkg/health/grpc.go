package health

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/tair/goldlink/pkg/logger"
)

// LoggingInterceptor logs gRPC requests
func LoggingInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	event := logger.Debug(ctx)
	if err != nil {
		event = logger.Error(ctx).Err(err)
	}
	event.
		Str("method", info.FullMethod).
		Dur("duration", time.Since(start)).
		Msg("gRPC request")

	return resp, err
}

// NewGRPCServer returns a server exposing grpc.health.v1 together with the
// health registry so callers can flip the serving status
func NewGRPCServer() (*grpc.Server, *health.Server) {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(LoggingInterceptor),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)
	return server, hs
}

// Watch re-checks the database every interval and mirrors the result into hs
// until ctx is cancelled
func Watch(ctx context.Context, hs *health.Server, db Pinger, count UserCounter, interval time.Duration) {
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if _, err := Check(ctx, db, count); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			logger.Warn(ctx).Err(err).Msg("Health check failed")
		}
		hs.SetServingStatus("", status)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
