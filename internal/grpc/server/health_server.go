// Package server реализует gRPC health-сервер для проб оркестратора.
//
// HealthServer периодически опрашивает зависимости и выставляет статус
// SERVING/NOT_SERVING как для всего сервиса, так и для каждой зависимости отдельно.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
)

const probeTimeout = 2 * time.Second

// Checker проверяет доступность зависимости.
type Checker interface {
	Ping(ctx context.Context) error
}

// HealthServer отдаёт состояние зависимостей по протоколу grpc.health.v1.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	checks     map[string]Checker
	log        *slog.Logger
}

// NewHealthServer создает новый экземпляр HealthServer.
func NewHealthServer(checks map[string]Checker, logger *slog.Logger) *HealthServer {
	h := &HealthServer{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		checks:     checks,
		log:        logger,
	}
	healthpb.RegisterHealthServer(h.grpcServer, h.health)
	return h
}

// Probe опрашивает все зависимости и обновляет статусы.
// Общий статус SERVING только если доступны все зависимости.
func (h *HealthServer) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	healthy := true
	for name, check := range h.checks {
		status := healthpb.HealthCheckResponse_SERVING
		if err := check.Ping(ctx); err != nil {
			h.log.Warn("dependency probe failed", slog.String("dependency", name), sl.Err(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
			healthy = false
		}
		h.health.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", overall)
	return healthy
}

// Serve принимает соединения на lis и раз в every обновляет статусы,
// пока не отменён ctx.
func (h *HealthServer) Serve(ctx context.Context, lis net.Listener, every time.Duration) error {
	h.Probe(ctx)

	errCh := make(chan error, 1)
	go func() {
		h.log.Info("gRPC health server listening on", slog.String("address", lis.Addr().String()))
		errCh <- h.grpcServer.Serve(lis)
	}()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			h.grpcServer.GracefulStop()
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}
