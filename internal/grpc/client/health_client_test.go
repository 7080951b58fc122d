package client

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startHealthServer(t *testing.T) (*health.Server, *bufconn.Listener) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return hs, lis
}

func TestHealthClient_Check(t *testing.T) {
	hs, lis := startHealthServer(t)
	hs.SetServingStatus("postgres", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("redis", healthpb.HealthCheckResponse_NOT_SERVING)

	c, err := NewHealthClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	assert.NoError(t, c.Check(ctx, ""))
	assert.NoError(t, c.Check(ctx, "postgres"))

	err = c.Check(ctx, "redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_SERVING")

	err = c.Check(ctx, "rabbitmq")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotFound")
}
