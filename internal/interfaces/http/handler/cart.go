package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cartapp "github.com/storefront/backend/internal/application/cart"
)

// CartService is what CartHandler needs from the cart application service
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*cartapp.CartResponse, error)
	Add(ctx context.Context, userID uuid.UUID, req cartapp.AddItemRequest) (*cartapp.CartResponse, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, req cartapp.UpdateItemRequest) (*cartapp.CartResponse, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) (*cartapp.CartResponse, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// CartHandler serves the authenticated user's cart
type CartHandler struct {
	BaseHandler
	carts CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get handles GET /cart
// @Summary      Get the current cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	cart, err := h.carts.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Add handles POST /cart. Adding a product already in the cart merges quantities.
// @Summary      Add a product to the cart
// @Description  Adding a product already in the cart merges the quantities
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Product and quantity"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart [post]
func (h *CartHandler) Add(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req cartapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	cart, err := h.carts.Add(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// UpdateQuantity handles PUT /cart/:itemId
// @Summary      Change the quantity of a cart line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        itemId path string true "Cart item ID" format(uuid)
// @Param        request body cartapp.UpdateItemRequest true "New quantity"
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/{itemId} [put]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}

	var req cartapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	cart, err := h.carts.UpdateQuantity(c.Request.Context(), userID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Remove handles DELETE /cart/:itemId
// @Summary      Remove a line from the cart
// @Tags         cart
// @Produce      json
// @Param        itemId path string true "Cart item ID" format(uuid)
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/{itemId} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}

	cart, err := h.carts.Remove(c.Request.Context(), userID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Clear handles DELETE /cart
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
