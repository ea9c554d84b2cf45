package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	eventapp "github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDeadLetterService struct {
	mock.Mock
}

func (m *mockDeadLetterService) ListDead(ctx context.Context, filter eventapp.PageFilter) ([]eventapp.EntryDTO, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]eventapp.EntryDTO), args.Get(1).(int64), args.Error(2)
}

func (m *mockDeadLetterService) entry(args mock.Arguments) (*eventapp.EntryDTO, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventapp.EntryDTO), args.Error(1)
}

func (m *mockDeadLetterService) Get(ctx context.Context, id uuid.UUID) (*eventapp.EntryDTO, error) {
	return m.entry(m.Called(ctx, id))
}

func (m *mockDeadLetterService) Retry(ctx context.Context, id uuid.UUID) (*eventapp.EntryDTO, error) {
	return m.entry(m.Called(ctx, id))
}

func (m *mockDeadLetterService) RetryAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockDeadLetterService) Stats(ctx context.Context) (*eventapp.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventapp.Stats), args.Error(1)
}

func outboxRouter(svc DeadLetterService) *gin.Engine {
	h := NewOutboxHandler(svc)
	r := gin.New()
	g := r.Group("/admin/outbox")
	g.GET("/stats", h.Stats)
	g.GET("/dead", h.ListDead)
	g.POST("/retry-all", h.RetryAll)
	g.GET("/:id", h.Get)
	g.POST("/:id/retry", h.Retry)
	return r
}

func TestOutboxHandler_Stats(t *testing.T) {
	svc := new(mockDeadLetterService)
	svc.On("Stats", mock.Anything).Return(&eventapp.Stats{Pending: 2, Dead: 1, Total: 3}, nil)

	w := perform(outboxRouter(svc), http.MethodGet, "/admin/outbox/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got eventapp.Stats
	decodeData(t, w, &got)
	assert.Equal(t, int64(1), got.Dead)
}

func TestOutboxHandler_ListDead(t *testing.T) {
	svc := new(mockDeadLetterService)
	svc.On("ListDead", mock.Anything, eventapp.PageFilter{PageSize: 5}).
		Return([]eventapp.EntryDTO{{ID: uuid.New(), EventType: "OrderPlaced"}}, int64(6), nil)

	w := perform(outboxRouter(svc), http.MethodGet, "/admin/outbox/dead?page_size=5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 2, resp.Meta.TotalPages)
}

func TestOutboxHandler_GetAndRetry(t *testing.T) {
	id := uuid.New()
	svc := new(mockDeadLetterService)
	svc.On("Get", mock.Anything, id).Return(&eventapp.EntryDTO{ID: id, Status: "DEAD"}, nil)
	svc.On("Retry", mock.Anything, id).Return(nil, shared.NewDomainError("INVALID_STATE", "entry is not retryable"))
	svc.On("Get", mock.Anything, mock.Anything).Return(nil, eventapp.ErrEntryNotFound)
	r := outboxRouter(svc)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/admin/outbox/"+id.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/admin/outbox/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, perform(r, http.MethodPost, "/admin/outbox/"+id.String()+"/retry", nil).Code)
}

func TestOutboxHandler_RetryAll(t *testing.T) {
	svc := new(mockDeadLetterService)
	svc.On("RetryAll", mock.Anything).Return(int64(7), nil)

	w := perform(outboxRouter(svc), http.MethodPost, "/admin/outbox/retry-all", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Retried int64 `json:"retried"`
	}
	decodeData(t, w, &got)
	assert.Equal(t, int64(7), got.Retried)
}
