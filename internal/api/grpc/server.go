package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"rental-engine-backend/internal/api/grpc/interceptor"
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/security"
)

// ServiceName is the health service name reported next to the overall "".
const ServiceName = "rental.engine"

const defaultCheckInterval = 15 * time.Second

// HealthChecker reports whether the engine's backing store is usable.
type HealthChecker func(ctx context.Context) error

// Server is the gRPC endpoint: standard health checking plus reflection,
// behind the same token rules as the HTTP API.
type Server struct {
	grpc     *grpclib.Server
	health   *health.Server
	check    HealthChecker
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

func NewServer(tm security.TokenManager, check HealthChecker, interval time.Duration) *Server {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	auth := interceptor.NewAuthInterceptor(tm)
	gs := grpclib.NewServer(
		grpclib.UnaryInterceptor(auth.Unary()),
		grpclib.StreamInterceptor(auth.Stream()),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{
		grpc:     gs,
		health:   hs,
		check:    check,
		interval: interval,
		stop:     make(chan struct{}),
	}
	s.Refresh(context.Background())
	return s
}

// Refresh runs the health check once and publishes the result.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if s.check != nil {
		if err := s.check(ctx); err != nil {
			logger.Warn("Health check failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Serve blocks serving lis and re-checks health every interval until Stop.
func (s *Server) Serve(lis net.Listener) error {
	go s.watch()
	logger.Info("gRPC server listening", "address", lis.Addr().String())
	return s.grpc.Serve(lis)
}

func (s *Server) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			s.Refresh(ctx)
			cancel()
		}
	}
}

// Stop marks the server NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
		s.grpc.GracefulStop()
	})
}
