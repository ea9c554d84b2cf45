package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEventHandler is a mock implementation of shared.EventHandler
type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newIdempotencyTestEvent() *testEvent {
	return newTestEvent("test.event")
}

func TestIdempotentHandler_Handle_NewEvent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newIdempotencyTestEvent()
	mockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop())

	require.NoError(t, handler.Handle(context.Background(), event))

	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.GetMetrics().EventsProcessed.Load())
	assert.Equal(t, int64(0), handler.GetMetrics().EventsDuplicate.Load())
}

func TestIdempotentHandler_Handle_DuplicateEvent(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newIdempotencyTestEvent()
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop())

	for i := 0; i < 3; i++ {
		require.NoError(t, handler.Handle(context.Background(), event))
	}

	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.GetMetrics().EventsProcessed.Load())
	assert.Equal(t, int64(2), handler.GetMetrics().EventsDuplicate.Load())
}

func TestIdempotentHandler_Handle_FailureReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newIdempotencyTestEvent()
	expectedErr := errors.New("handler error")
	mockHandler.On("Handle", mock.Anything, event).Return(expectedErr).Once()
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop())

	err := handler.Handle(context.Background(), event)
	require.ErrorIs(t, err, expectedErr)
	assert.Equal(t, int64(1), handler.GetMetrics().EventsFailed.Load())

	// the redelivery reaches the handler again
	require.NoError(t, handler.Handle(context.Background(), event))
	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.GetMetrics().EventsProcessed.Load())
}

func TestIdempotentHandler_Handle_StoreError(t *testing.T) {
	mockStore := new(MockIdempotencyStore)
	mockHandler := new(MockEventHandler)
	event := newIdempotencyTestEvent()

	mockStore.On("MarkProcessed", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(false, errors.New("store error"))
	mockHandler.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(mockHandler, mockStore, zap.NewNop())

	require.NoError(t, handler.Handle(context.Background(), event))

	mockStore.AssertExpectations(t)
	mockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_Handle_ScopedKey(t *testing.T) {
	mockStore := new(MockIdempotencyStore)
	mockHandler := new(MockEventHandler)
	event := newIdempotencyTestEvent()
	key := "kafka:orders:" + event.EventID().String()

	mockStore.On("MarkProcessed", mock.Anything, key, time.Hour).Return(true, nil)
	mockStore.On("Forget", mock.Anything, key).Return(nil)
	mockHandler.On("Handle", mock.Anything, event).Return(errors.New("boom"))

	handler := NewIdempotentHandler(mockHandler, mockStore, zap.NewNop(),
		WithScope("kafka:orders"),
		WithIdempotencyConfig(IdempotencyConfig{Enabled: true, TTL: time.Hour}),
	)

	require.Error(t, handler.Handle(context.Background(), event))
	mockStore.AssertExpectations(t)
}

func TestIdempotentHandler_SeparateScopesBothRun(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	event := newIdempotencyTestEvent()
	kafka := new(MockEventHandler)
	rabbit := new(MockEventHandler)
	kafka.On("Handle", mock.Anything, event).Return(nil).Once()
	rabbit.On("Handle", mock.Anything, event).Return(nil).Once()

	h1 := NewIdempotentHandler(kafka, store, zap.NewNop(), WithScope("kafka"))
	h2 := NewIdempotentHandler(rabbit, store, zap.NewNop(), WithScope("rabbitmq"))

	require.NoError(t, h1.Handle(context.Background(), event))
	require.NoError(t, h2.Handle(context.Background(), event))

	kafka.AssertExpectations(t)
	rabbit.AssertExpectations(t)
}

func TestIdempotentHandler_Handle_Disabled(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := newIdempotencyTestEvent()
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Times(3)

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop(),
		WithIdempotencyConfig(IdempotencyConfig{Enabled: false}),
	)

	for i := 0; i < 3; i++ {
		require.NoError(t, handler.Handle(context.Background(), event))
	}

	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(0), handler.GetMetrics().EventsProcessed.Load())
	assert.Equal(t, int64(0), handler.GetMetrics().EventsDuplicate.Load())
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	mockHandler := new(MockEventHandler)
	expectedTypes := []string{"OrderPlaced", "OrderStatusChanged"}
	mockHandler.On("EventTypes").Return(expectedTypes)

	handler := NewIdempotentHandler(mockHandler, new(MockIdempotencyStore), zap.NewNop())

	assert.Equal(t, expectedTypes, handler.EventTypes())
	mockHandler.AssertExpectations(t)
}

func TestIdempotentHandler_SharedMetrics(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	sharedMetrics := &IdempotencyMetrics{}
	mockHandler1 := new(MockEventHandler)
	mockHandler2 := new(MockEventHandler)
	event1 := newIdempotencyTestEvent()
	event2 := newIdempotencyTestEvent()
	mockHandler1.On("Handle", mock.Anything, event1).Return(nil)
	mockHandler2.On("Handle", mock.Anything, event2).Return(nil)

	handler1 := NewIdempotentHandler(mockHandler1, store, zap.NewNop(), WithIdempotencyMetrics(sharedMetrics))
	handler2 := NewIdempotentHandler(mockHandler2, store, zap.NewNop(), WithIdempotencyMetrics(sharedMetrics))

	require.NoError(t, handler1.Handle(context.Background(), event1))
	require.NoError(t, handler2.Handle(context.Background(), event2))

	assert.Equal(t, int64(2), sharedMetrics.Stats().EventsProcessed)
}

func TestIdempotentHandler_ConcurrentDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	mockHandler := new(MockEventHandler)
	event := &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("test.event", "TestAggregate", uuid.New()),
	}
	mockHandler.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(mockHandler, store, zap.NewNop())

	const numGoroutines = 50
	errChan := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			errChan <- handler.Handle(context.Background(), event)
		}()
	}
	for i := 0; i < numGoroutines; i++ {
		assert.NoError(t, <-errChan)
	}

	mockHandler.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.GetMetrics().EventsProcessed.Load())
	assert.Equal(t, int64(numGoroutines-1), handler.GetMetrics().EventsDuplicate.Load())
}
