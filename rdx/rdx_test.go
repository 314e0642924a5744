package rdx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	cache := NewCache(nil, time.Minute, zap.NewNop())
	assert.False(t, cache.Enabled())

	cache.SetJSON(context.Background(), "k", map[string]string{"a": "b"})
	var out map[string]string
	assert.False(t, cache.GetJSON(context.Background(), "k", &out))
	assert.NotPanics(t, func() { cache.Del(context.Background(), "k") })
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "redis://:bad:port:/x", "")
	assert.Error(t, err)
}
