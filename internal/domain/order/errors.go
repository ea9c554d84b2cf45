package order

import (
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

const (
	CodeInvalidLineItem        = "INVALID_LINE_ITEM"
	CodeInvalidTransition      = "INVALID_STATE_TRANSITION"
	CodeCompensationFailure    = "COMPENSATION_FAILURE"
	CodeCartClearFailure       = "CART_CLEAR_FAILURE"
	CodeDuplicateOrderNumber   = "DUPLICATE_ORDER_NUMBER"
	CodeInvalidPaymentMethod   = "INVALID_PAYMENT_METHOD"
	CodeInvalidShippingAddress = "INVALID_SHIPPING_ADDRESS"
)

var (
	ErrInvalidLineItem        = shared.NewDomainError(CodeInvalidLineItem, "Invalid line item")
	ErrInvalidTransition      = shared.NewDomainError(CodeInvalidTransition, "Order status transition not allowed")
	ErrDuplicateOrderNumber   = shared.NewDomainError(CodeDuplicateOrderNumber, "Order number already exists")
	ErrCompensationFailure    = shared.NewDomainError(CodeCompensationFailure, "Failed to release reserved stock")
	ErrCartClearFailure       = shared.NewDomainError(CodeCartClearFailure, "Order placed but cart could not be cleared")
	ErrInvalidPaymentMethod   = shared.NewDomainError(CodeInvalidPaymentMethod, "Invalid payment method")
	ErrInvalidShippingAddress = shared.NewDomainError(CodeInvalidShippingAddress, "Shipping address is incomplete")
)

// NewInvalidLineItemError creates an INVALID_LINE_ITEM error with detail
func NewInvalidLineItemError(detail string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidLineItem, "Invalid line item: "+detail)
}

// NewInvalidTransitionError names both ends of a rejected transition
func NewInvalidTransitionError(from, to OrderStatus) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("Cannot change order status from %s to %s", from, to))
}
