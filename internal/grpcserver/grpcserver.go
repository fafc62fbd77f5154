// Package grpcserver serves the standard gRPC health service, reporting
// NOT_SERVING while the role store is unreachable.
package grpcserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name clients may query besides ""
const ServiceName = "startuproles.v1.Catalog"

// Pinger checks the store
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server owns the gRPC listener and the health status loop
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	store    Pinger
	interval time.Duration
	logger   *zap.Logger
}

// New creates a health server checking store every interval
func New(store Pinger, interval time.Duration, logger *zap.Logger) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		grpc:     grpc.NewServer(),
		health:   health.NewServer(),
		store:    store,
		interval: interval,
		logger:   logger,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	return s
}

// Serve checks the store once, then serves on lis until Stop. The status loop ends with ctx.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.check(ctx)
	go s.watch(ctx)

	s.logger.Info("gRPC health server listening", zap.String("address", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains connections
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Server) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("Store unreachable, reporting NOT_SERVING", zap.Error(err))
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
