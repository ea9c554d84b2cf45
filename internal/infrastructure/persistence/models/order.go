package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderModel is the persistence model for the Order aggregate.
// Addresses are stored as JSON documents.
type OrderModel struct {
	AggregateModel
	OrderNumber        string              `gorm:"type:varchar(32);not null;uniqueIndex:idx_orders_order_number"`
	UserID             uuid.UUID           `gorm:"type:uuid;not null;index:idx_orders_user_created,priority:1"`
	ShippingAddress    order.Address       `gorm:"type:jsonb;serializer:json;not null"`
	BillingAddress     order.Address       `gorm:"type:jsonb;serializer:json;not null"`
	PaymentMethod      order.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaymentStatus      order.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentID          string              `gorm:"type:varchar(100)"`
	Status             order.OrderStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	Subtotal           decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Tax                decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	ShippingCost       decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Total              decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Notes              string              `gorm:"type:text"`
	TrackingNumber     string              `gorm:"type:varchar(100)"`
	EstimatedDelivery  *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string           `gorm:"type:varchar(500)"`
	Items              []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one snapshotted line of an order
type OrderItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Image     string          `gorm:"type:varchar(500)"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SortOrder int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order.
// Items must have been preloaded; they are returned in their original order.
func (m *OrderModel) ToDomain() *order.Order {
	items := make([]order.LineItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = order.LineItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}
	return &order.Order{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		OrderNumber:        m.OrderNumber,
		UserID:             m.UserID,
		Items:              items,
		ShippingAddress:    m.ShippingAddress,
		BillingAddress:     m.BillingAddress,
		PaymentMethod:      m.PaymentMethod,
		PaymentStatus:      m.PaymentStatus,
		PaymentID:          m.PaymentID,
		Status:             m.Status,
		Subtotal:           m.Subtotal,
		Tax:                m.Tax,
		ShippingCost:       m.ShippingCost,
		Total:              m.Total,
		Notes:              m.Notes,
		TrackingNumber:     m.TrackingNumber,
		EstimatedDelivery:  m.EstimatedDelivery,
		DeliveredAt:        m.DeliveredAt,
		CancelledAt:        m.CancelledAt,
		CancellationReason: m.CancellationReason,
	}
}

// FromDomain populates the persistence model, items included, from a domain Order.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.UserID = o.UserID
	m.ShippingAddress = o.ShippingAddress
	m.BillingAddress = o.BillingAddress
	m.PaymentMethod = o.PaymentMethod
	m.PaymentStatus = o.PaymentStatus
	m.PaymentID = o.PaymentID
	m.Status = o.Status
	m.Subtotal = o.Subtotal
	m.Tax = o.Tax
	m.ShippingCost = o.ShippingCost
	m.Total = o.Total
	m.Notes = o.Notes
	m.TrackingNumber = o.TrackingNumber
	m.EstimatedDelivery = o.EstimatedDelivery
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancellationReason = o.CancellationReason

	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:        item.ID,
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
			SortOrder: i,
		}
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
