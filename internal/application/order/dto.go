package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// LineItemRequest is one requested product and quantity
type LineItemRequest struct {
	ProductID uuid.UUID `json:"product" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// AddressDTO is the wire form of a postal address
type AddressDTO struct {
	FirstName    string `json:"first_name" binding:"max=100"`
	LastName     string `json:"last_name" binding:"max=100"`
	Phone        string `json:"phone" binding:"max=30"`
	AddressLine1 string `json:"address_line1" binding:"required,max=200"`
	AddressLine2 string `json:"address_line2" binding:"max=200"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"max=100"`
	Country      string `json:"country" binding:"required,max=100"`
	PostalCode   string `json:"postal_code" binding:"max=20"`
}

func (a AddressDTO) toDomain() order.Address {
	return order.Address(a)
}

func toAddressDTO(a order.Address) AddressDTO {
	return AddressDTO(a)
}

// PlaceOrderRequest is the body of POST /orders
type PlaceOrderRequest struct {
	Items           []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress AddressDTO        `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressDTO       `json:"billing_address"`
	PaymentMethod   string            `json:"payment_method" binding:"omitempty,oneof=card cod upi wallet"`
	Notes           string            `json:"notes" binding:"max=1000"`
}

// UpdateOrderStatusRequest is the body of PUT /orders/:id/status
type UpdateOrderStatusRequest struct {
	Status            string     `json:"status" binding:"required,oneof=confirmed processing shipped delivered cancelled"`
	TrackingNumber    string     `json:"tracking_number" binding:"max=100"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	Reason            string     `json:"reason" binding:"max=500"`
}

// ListOrdersFilter selects a page of a user's orders
type ListOrdersFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Requester identifies who is asking, as established by authentication
type Requester struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// OrderItemResponse is a line item snapshot in API responses
type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	UserID             uuid.UUID           `json:"user_id"`
	Items              []OrderItemResponse `json:"items"`
	ItemCount          int                 `json:"item_count"`
	ShippingAddress    AddressDTO          `json:"shipping_address"`
	BillingAddress     AddressDTO          `json:"billing_address"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentStatus      string              `json:"payment_status"`
	PaymentID          string              `json:"payment_id,omitempty"`
	OrderStatus        string              `json:"order_status"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	Tax                decimal.Decimal     `json:"tax"`
	ShippingCost       decimal.Decimal     `json:"shipping_cost"`
	Total              decimal.Decimal     `json:"total"`
	Notes              string              `json:"notes,omitempty"`
	TrackingNumber     string              `json:"tracking_number,omitempty"`
	EstimatedDelivery  *time.Time          `json:"estimated_delivery,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Version            int                 `json:"version"`
}

// PlaceOrderResult is the outcome of a successful placement.
// Warnings lists non-fatal problems that occurred after the order was committed.
type PlaceOrderResult struct {
	Order    OrderResponse `json:"order"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ToOrderResponse converts a domain order to its response form
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}

	return OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		UserID:             o.UserID,
		Items:              items,
		ItemCount:          o.ItemCount(),
		ShippingAddress:    toAddressDTO(o.ShippingAddress),
		BillingAddress:     toAddressDTO(o.BillingAddress),
		PaymentMethod:      string(o.PaymentMethod),
		PaymentStatus:      string(o.PaymentStatus),
		PaymentID:          o.PaymentID,
		OrderStatus:        string(o.Status),
		Subtotal:           o.Subtotal,
		Tax:                o.Tax,
		ShippingCost:       o.ShippingCost,
		Total:              o.Total,
		Notes:              o.Notes,
		TrackingNumber:     o.TrackingNumber,
		EstimatedDelivery:  o.EstimatedDelivery,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Version:            o.Version,
	}
}
