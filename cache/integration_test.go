package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loomworks/loom/trace"
)

// TestHookAgainstRedis verifies the hook against a real Redis server.
func TestHookAgainstRedis(t *testing.T) {
	// Skip if running in short mode
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	addr, containerInstance := initializeRedis(ctx, t)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	tracer, capture := newTestTracer(t)

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	client.AddHook(NewHook(tracer, Config{RecordKeys: true}))

	t.Run("miss then hit", func(t *testing.T) {
		_, err := client.Get(ctx, "orders:42").Result()
		require.ErrorIs(t, err, redis.Nil)

		require.NoError(t, client.Set(ctx, "orders:42", "payload", time.Minute).Err())

		value, err := client.Get(ctx, "orders:42").Result()
		require.NoError(t, err)
		assert.Equal(t, "payload", value)

		spans := capture.ended()
		require.Len(t, spans, 3)

		miss := spans[0]
		assert.Equal(t, "redis.get", miss.Name())
		assert.Equal(t, false, miss.Attributes()["cache.hit"])
		assert.Equal(t, "orders:42", miss.Attributes()["cache.key"])
		assert.Equal(t, trace.StatusUnset, miss.Status().Code)

		assert.Equal(t, "redis.set", spans[1].Name())

		hit := spans[2]
		assert.Equal(t, "redis.get", hit.Name())
		assert.NotContains(t, hit.Attributes(), "cache.hit")
	})

	t.Run("pipeline", func(t *testing.T) {
		pipe := client.Pipeline()
		pipe.Set(ctx, "a", "1", 0)
		pipe.Set(ctx, "b", "2", 0)
		_, err := pipe.Exec(ctx)
		require.NoError(t, err)

		spans := capture.ended()
		last := spans[len(spans)-1]
		assert.Equal(t, "redis.pipeline", last.Name())
		assert.Equal(t, int64(2), last.Attributes()["cache.commands"])
	})
}

// Helper functions

func initializeRedis(ctx context.Context, t *testing.T) (string, testcontainers.Container) {
	t.Helper()

	hostPort, err := getFreePort()
	require.NoError(t, err)

	portBindings := nat.PortMap{
		"6379/tcp": []nat.PortBinding{{HostPort: hostPort}},
	}

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("6379/tcp").WithStartupTimeout(30*time.Second),
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	}

	containerInstance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := containerInstance.Host(ctx)
	require.NoError(t, err)

	port, err := containerInstance.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%d", host, port.Int()), containerInstance
}

func getFreePort() (string, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	addr := l.Addr().(*net.TCPAddr)
	return strconv.Itoa(addr.Port), nil
}
