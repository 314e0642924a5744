//go:build integration

package rdx

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestCacheAgainstRedis(t *testing.T) {
	ctx := context.Background()
	conn, err := Connect(ctx, startRedis(t), "")
	require.NoError(t, err)
	defer conn.Close()

	cache := NewCache(conn, time.Minute, zap.NewNop())
	require.True(t, cache.Enabled())

	type doc struct{ Title string }
	var got doc
	assert.False(t, cache.GetJSON(ctx, RecipeKey("x"), &got))

	cache.SetJSON(ctx, RecipeKey("x"), doc{Title: "Soup"})
	require.True(t, cache.GetJSON(ctx, RecipeKey("x"), &got))
	assert.Equal(t, "Soup", got.Title)

	cache.Del(ctx, RecipeKey("x"))
	assert.False(t, cache.GetJSON(ctx, RecipeKey("x"), &got))
}
