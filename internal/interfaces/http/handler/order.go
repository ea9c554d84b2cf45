package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// OrderService is what OrderHandler needs from the order application service
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req orderapp.PlaceOrderRequest) (*orderapp.PlaceOrderResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter orderapp.ListOrdersFilter) ([]orderapp.OrderResponse, int64, error)
	GetForRequester(ctx context.Context, requester orderapp.Requester, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req orderapp.UpdateOrderStatusRequest) (*orderapp.OrderResponse, error)
}

// OrderHandler serves checkout and order history
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// PlaceOrder handles POST /orders
// @Summary      Place an order
// @Description  Reserves stock for every line, prices the order and clears the cart. Any failed reservation releases the ones already taken.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param        request body orderapp.PlaceOrderRequest true "Line items, shipping address and payment method"
// @Success      201 {object} dto.Response{data=orderapp.PlaceOrderResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req orderapp.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orders.PlaceOrder(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List handles GET /orders, newest first
// @Summary      List the current user's orders
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Param        page_size query int false "Page size" minimum(1) maximum(100)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var filter orderapp.ListOrdersFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	orders, total, err := h.orders.ListForUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := dto.PageRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, orders, total, page.Page, page.PageSize)
}

// Get handles GET /orders/:id. Only the owner or an admin may read an order.
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	requester := orderapp.Requester{UserID: userID, IsAdmin: middleware.IsAdmin(c)}
	o, err := h.orders.GetForRequester(c.Request.Context(), requester, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, o)
}

// UpdateStatus handles PUT /orders/:id/status for administrators
// @Summary      Change an order status
// @Description  Cancelling an order returns its stock to the catalog
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body orderapp.UpdateOrderStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req orderapp.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, o)
}
