package grpc

import (
	"context"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/internal/service"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the job substrate.
const ServiceName = "occupancy.JobSubstrate"

// Pinger reports whether a backing store answers.
type Pinger func(ctx context.Context) error

type HealthService struct {
	srv        *health.Server
	dispatcher service.JobDispatcher
	ping       Pinger
	l          logger.Logger
}

func NewHealthService(dispatcher service.JobDispatcher, ping Pinger, l logger.Logger) *HealthService {
	return &HealthService{
		srv:        health.NewServer(),
		dispatcher: dispatcher,
		ping:       ping,
		l:          l,
	}
}

func (h *HealthService) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Refresh recomputes the serving status. The substrate is serving while the
// poller runs and the store answers.
func (h *HealthService) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if !h.dispatcher.GetStatus().IsRunning {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	} else if err := h.ping(ctx); err != nil {
		h.l.Warnf(ctx, "delivery.grpc.HealthService.Refresh: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
	return status
}

// Watch refreshes every interval until ctx is done.
func (h *HealthService) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

func (h *HealthService) Shutdown() {
	h.srv.Shutdown()
}
