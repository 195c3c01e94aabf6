package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
)

type stubChecker struct {
	name string
	err  error
}

func (c stubChecker) Name() string                { return c.name }
func (c stubChecker) Check(context.Context) error { return c.err }

func newObservedLogger() (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logging.NewLoggerFromCore(core), logs
}

func startServer(t *testing.T, opts ...Option) (*Server, healthpb.HealthClient) {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", opts...)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("grpc server did not stop")
		}
	})

	conn, err := grpc.NewClient(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, healthpb.NewHealthClient(conn)
}

func TestServer_HealthServing(t *testing.T) {
	_, client := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServer_CheckersDriveServingStatus(t *testing.T) {
	logger, logs := newObservedLogger()
	srv, client := startServer(t,
		WithLogger(logger),
		WithCheckers(time.Hour, stubChecker{name: "postgres"}, stubChecker{name: "redis", err: errors.New("dial tcp: refused")}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, srv.CheckNow(ctx))
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	failed := logs.FilterMessage("dependency check failed").All()
	require.NotEmpty(t, failed)
	assert.Equal(t, "redis", failed[0].ContextMap()["component"])
}

func TestServer_StopBeforeStart(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestNewServer_InvalidAddress(t *testing.T) {
	_, err := NewServer("256.0.0.1:99999")
	assert.Error(t, err)
}

func TestRecoveryUnaryInterceptor_Panic(t *testing.T) {
	logger, logs := newObservedLogger()
	interceptor := recoveryUnaryInterceptor(logger)

	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Boom"}
	resp, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, 1, logs.FilterMessage("grpc panic recovered").Len())
}

func TestLoggingUnaryInterceptor_SkipsHealth(t *testing.T) {
	logger, logs := newObservedLogger()
	interceptor := loggingUnaryInterceptor(logger)
	ok := func(context.Context, interface{}) (interface{}, error) { return "ok", nil }

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, ok)
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/test.Service/Call"}, ok)
	require.NoError(t, err)
	entries := logs.FilterMessage("grpc request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "OK", entries[0].ContextMap()["code"])
}

//Personal.AI order the ending
