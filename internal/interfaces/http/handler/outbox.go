package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	eventapp "github.com/storefront/backend/internal/application/event"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// DeadLetterService is what OutboxHandler needs to inspect and replay failed events
type DeadLetterService interface {
	ListDead(ctx context.Context, filter eventapp.PageFilter) ([]eventapp.EntryDTO, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*eventapp.EntryDTO, error)
	Retry(ctx context.Context, id uuid.UUID) (*eventapp.EntryDTO, error)
	RetryAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*eventapp.Stats, error)
}

// OutboxHandler exposes outbox administration to operators
type OutboxHandler struct {
	BaseHandler
	deadLetters DeadLetterService
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(deadLetters DeadLetterService) *OutboxHandler {
	return &OutboxHandler{deadLetters: deadLetters}
}

// Stats handles GET /admin/outbox/stats
// @Summary      Count outbox entries by status
// @Tags         outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=eventapp.Stats}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.deadLetters.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListDead handles GET /admin/outbox/dead
// @Summary      List dead-lettered events
// @Tags         outbox
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]eventapp.EntryDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/dead [get]
func (h *OutboxHandler) ListDead(c *gin.Context) {
	var filter eventapp.PageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	entries, total, err := h.deadLetters.ListDead(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, entries, total, page.Page, page.PageSize)
}

// Get handles GET /admin/outbox/:id
// @Summary      Get an outbox entry
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=eventapp.EntryDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/{id} [get]
func (h *OutboxHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.deadLetters.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Retry handles POST /admin/outbox/:id/retry
// @Summary      Requeue a dead-lettered event
// @Tags         outbox
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=eventapp.EntryDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/{id}/retry [post]
func (h *OutboxHandler) Retry(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.deadLetters.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAll handles POST /admin/outbox/retry-all
// @Summary      Requeue every dead-lettered event
// @Tags         outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=object}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/retry-all [post]
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	count, err := h.deadLetters.RetryAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"retried": count})
}
