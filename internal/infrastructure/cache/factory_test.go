package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func unreachable(context.Context, config.RedisConfig) (shared.IdempotencyStore, error) {
	return nil, errors.New("connection refused")
}

func TestIdempotencyStoreFactory_FallsBackToMemory(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)
	f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "localhost", Port: 6379}, WithLogger(zap.New(core)))
	f.dial = unreachable

	store, err := f.CreateStore(context.Background())

	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	assert.Equal(t, 1, recorded.Len())
}

func TestIdempotencyStoreFactory_NoFallback(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "localhost", Port: 6379}, WithInMemoryFallback(false))
	f.dial = unreachable

	_, err := f.CreateStore(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIdempotencyStoreFactory_UsesRedisWhenReachable(t *testing.T) {
	want := NewInMemoryIdempotencyStore()
	defer want.Close()

	f := NewIdempotencyStoreFactory(config.RedisConfig{})
	f.dial = func(context.Context, config.RedisConfig) (shared.IdempotencyStore, error) { return want, nil }

	got, err := f.CreateStore(context.Background())

	require.NoError(t, err)
	assert.Same(t, want, got)
}
