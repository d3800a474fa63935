// Package health exposes the standard grpc.health.v1 service so orchestrators
// can probe the triangulator over gRPC as well as HTTP.
package health

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/triangulator/internal/monitoring"
)

// ServiceName is the fully qualified service reported alongside "".
const ServiceName = "triangulator.Triangulator"

// Server runs the gRPC health service on its own listener.
type Server struct {
	addr string

	mu       sync.Mutex
	server   *grpc.Server
	health   *grpchealth.Server
	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewServer returns a server that will listen on addr once started.
func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

// Start binds the listener and serves in the background. Both "" and
// ServiceName report SERVING.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return fmt.Errorf("health server already running")
	}

	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = lis

	s.server = grpc.NewServer()
	s.health = grpchealth.NewServer()
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		monitoring.L().Info("grpc health listening", zap.String("addr", lis.Addr().String()))
		if err := s.server.Serve(lis); err != nil && s.running.Load() {
			monitoring.L().Error("grpc health server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// SetServing flips both services between SERVING and NOT_SERVING.
func (s *Server) SetServing(serving bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.health == nil {
		return
	}
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Stop reports NOT_SERVING to watchers and then stops gracefully.
func (s *Server) Stop() {
	if !s.running.Load() {
		return
	}
	s.running.Store(false)

	s.mu.Lock()
	if s.health != nil {
		s.health.Shutdown()
	}
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		srv.GracefulStop()
	}
	s.wg.Wait()
}
