// Package health exposes the standard gRPC health checking protocol so
// orchestrators can probe the storefront process.
package health

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type Server struct {
	gs     *grpc.Server
	health *health.Server
	addr   net.Addr
}

// Run listens on addr and serves health checks in the background. The
// overall status starts as SERVING.
func Run(addr string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	go func() {
		_ = gs.Serve(lis)
	}()
	return &Server{gs: gs, health: hs, addr: lis.Addr()}, nil
}

func (s *Server) Addr() string { return s.addr.String() }

func (s *Server) SetServing(service string, serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.gs.GracefulStop()
}
