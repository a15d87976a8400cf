//go:build integration

package analytics

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T) *RedisStore {
	t.Helper()
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := NewRedisStore(ctx, &redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())}, time.Hour, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStoreLifecycle(t *testing.T) {
	store := startRedis(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := event("How do I apply?", "Hiring Process", 0)
	old.Timestamp = now.Add(-2 * time.Hour)
	recent := event("What is the starting salary?", "Salary/Pay", 0)
	recent.Timestamp = now

	require.NoError(t, store.Record(ctx, old))
	require.NoError(t, store.Record(ctx, recent))

	events, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, recent.Question, events[0].Question)

	filtered, err := store.List(ctx, ListFilter{Categories: []string{"Hiring Process"}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	purged, err := store.PurgeExpired(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	cleared, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	events, err = store.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}
