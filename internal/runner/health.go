package runner

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported for the simulation loop.
const ServiceName = "arena.Simulation"

// Health publishes the loop state through the standard gRPC health protocol.
// The overall server status ("") follows the simulation status.
type Health struct {
	server *health.Server
}

// NewHealth creates a reporter that starts out NOT_SERVING.
func NewHealth() *Health {
	h := &Health{server: health.NewServer()}
	h.SetServing(false)
	return h
}

// Register attaches the health service to a gRPC server.
func (h *Health) Register(server *grpc.Server) {
	if h == nil || server == nil {
		return
	}
	healthpb.RegisterHealthServer(server, h.server)
}

// SetServing updates the reported status.
func (h *Health) SetServing(serving bool) {
	if h == nil {
		return
	}
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}

// Shutdown reports NOT_SERVING permanently, ignoring later updates.
func (h *Health) Shutdown() {
	if h == nil {
		return
	}
	h.server.Shutdown()
}
