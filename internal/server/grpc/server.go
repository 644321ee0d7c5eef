// Package grpc serves the standard gRPC health service. The reported status
// follows database reachability.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/memorylocks/internal/logging"
)

// ServiceName is the health service name reported next to the overall ("")
// status.
const ServiceName = "memorylocks"

const defaultCheckInterval = 15 * time.Second

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type GRPCServer struct {
	address       string
	logger        logging.Logger
	db            Pinger
	health        *health.Server
	checkInterval time.Duration
}

func NewGRPCServer(address string, l logging.Logger, db Pinger) *GRPCServer {
	return &GRPCServer{
		address:       address,
		logger:        l.With("module", "grpc_server"),
		db:            db,
		health:        health.NewServer(),
		checkInterval: defaultCheckInterval,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.checkDatabase(ctx)

	go func() {
		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gPRC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.checkDatabase(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) checkDatabase(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.db.PingContext(pingCtx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "database unreachable", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
