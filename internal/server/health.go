package server

import (
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC service name reported by the health server.
const HealthService = "meshgate.v1.Mesh"

// HealthServer exposes the standard grpc.health.v1 protocol so
// orchestrators can probe the node without speaking HTTP.
type HealthServer struct {
	port   int
	grpc   *grpc.Server
	health *health.Server
}

// NewHealthServer registers a health service reporting SERVING for both the
// overall server ("") and HealthService.
func NewHealthServer(port int) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &HealthServer{port: port, grpc: gs, health: hs}
}

// Serve listens on the configured port. Blocks until Stop.
func (h *HealthServer) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", h.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", h.port, err)
	}
	return h.ServeOn(lis)
}

// ServeOn serves on the given listener. For testing.
func (h *HealthServer) ServeOn(lis net.Listener) error {
	log.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
	return h.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING, then drains in-flight RPCs.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
