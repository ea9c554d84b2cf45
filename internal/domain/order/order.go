package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the status is a known OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if the status can move to target.
// The forward path is pending -> confirmed -> processing -> shipped -> delivered;
// any non-terminal status may also move to cancelled.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPending:
		return target == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return target == OrderStatusProcessing
	case OrderStatusProcessing:
		return target == OrderStatusShipped
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	}
	return false
}

// PaymentMethod is the way the purchaser pays
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCOD, PaymentMethodUPI, PaymentMethodWallet:
		return true
	}
	return false
}

// PaymentStatus tracks settlement of the order amount
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Address is a postal address value object
type Address struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	PostalCode   string `json:"postal_code"`
}

// IsComplete requires at least a street line, a city and a country
func (a Address) IsComplete() bool {
	return strings.TrimSpace(a.AddressLine1) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.Country) != ""
}

// LineItem is an immutable snapshot of a product at purchase time
type LineItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
	Image     string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
}

// NewLineItem snapshots a product line and computes its subtotal
func NewLineItem(productID uuid.UUID, name, image string, unitPrice decimal.Decimal, quantity int) (LineItem, error) {
	if quantity < 1 {
		return LineItem{}, NewInvalidLineItemError(fmt.Sprintf("quantity for %s must be at least 1", productID))
	}
	if unitPrice.IsNegative() {
		return LineItem{}, NewInvalidLineItemError(fmt.Sprintf("unit price for %s cannot be negative", productID))
	}
	return LineItem{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      name,
		Image:     image,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Subtotal:  LineSubtotal(unitPrice, quantity),
	}, nil
}

// Order is the aggregate root of a placed order.
// Its items and totals are fixed at creation and never recomputed.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber        string
	UserID             uuid.UUID
	Items              []LineItem
	ShippingAddress    Address
	BillingAddress     Address
	PaymentMethod      PaymentMethod
	PaymentStatus      PaymentStatus
	PaymentID          string
	Status             OrderStatus
	Subtotal           decimal.Decimal
	Tax                decimal.Decimal
	ShippingCost       decimal.Decimal
	Total              decimal.Decimal
	Notes              string
	TrackingNumber     string
	EstimatedDelivery  *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string
}

// NewOrderParams carries everything needed to create an order
type NewOrderParams struct {
	OrderNumber     string
	UserID          uuid.UUID
	Items           []LineItem
	Totals          Totals
	ShippingAddress Address
	BillingAddress  *Address
	PaymentMethod   PaymentMethod
	Notes           string
}

// NewOrder creates a pending, unpaid order and raises OrderPlaced.
// The billing address defaults to the shipping address.
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Order must belong to a user")
	}
	if len(p.Items) == 0 {
		return nil, NewInvalidLineItemError("order must contain at least one item")
	}
	if !p.PaymentMethod.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	if !p.ShippingAddress.IsComplete() {
		return nil, ErrInvalidShippingAddress
	}
	if strings.TrimSpace(p.OrderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	sum := p.Totals.Subtotal.Add(p.Totals.Tax).Add(p.Totals.ShippingCost)
	if !sum.Equal(p.Totals.Total) {
		return nil, shared.NewDomainError("INVALID_TOTALS", "Total must equal subtotal + tax + shipping")
	}

	billing := p.ShippingAddress
	if p.BillingAddress != nil {
		billing = *p.BillingAddress
	}

	items := make([]LineItem, len(p.Items))
	copy(items, p.Items)

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       p.OrderNumber,
		UserID:            p.UserID,
		Items:             items,
		ShippingAddress:   p.ShippingAddress,
		BillingAddress:    billing,
		PaymentMethod:     p.PaymentMethod,
		PaymentStatus:     PaymentStatusPending,
		Status:            OrderStatusPending,
		Subtotal:          p.Totals.Subtotal,
		Tax:               p.Totals.Tax,
		ShippingCost:      p.Totals.ShippingCost,
		Total:             p.Totals.Total,
		Notes:             p.Notes,
	}

	o.AddDomainEvent(NewOrderPlacedEvent(o))

	return o, nil
}

// AssignOrderNumber replaces the number of an order that has not been persisted yet.
// Used when the storage layer rejects a colliding number.
func (o *Order) AssignOrderNumber(number string) {
	o.OrderNumber = number
	o.ClearDomainEvents()
	o.AddDomainEvent(NewOrderPlacedEvent(o))
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// StatusChange carries optional data attached to a transition
type StatusChange struct {
	TrackingNumber    string
	EstimatedDelivery *time.Time
	Reason            string
}

// TransitionTo moves the order along the status state machine
func (o *Order) TransitionTo(next OrderStatus, change StatusChange) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status: %s", next))
	}
	if !o.Status.CanTransitionTo(next) {
		return NewInvalidTransitionError(o.Status, next)
	}

	previous := o.Status
	now := time.Now()
	o.Status = next

	switch next {
	case OrderStatusShipped:
		if change.TrackingNumber != "" {
			o.TrackingNumber = change.TrackingNumber
		}
		if change.EstimatedDelivery != nil {
			o.EstimatedDelivery = change.EstimatedDelivery
		}
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
		o.CancellationReason = change.Reason
	}

	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))

	return nil
}

// ItemCount returns the total number of units in the order
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
