package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// maxOrderNumberAttempts bounds regeneration after a unique-index collision
	maxOrderNumberAttempts = 3
	// compensationTimeout bounds the release calls issued after a failure
	compensationTimeout = 5 * time.Second
)

// Metrics receives business measurements from the order workflow
type Metrics interface {
	RecordOrderPlaced(ctx context.Context, total decimal.Decimal, units int)
	RecordReservationFailure(ctx context.Context, reason string)
	RecordCompensationFailure(ctx context.Context)
	RecordCartClearFailure(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) RecordOrderPlaced(context.Context, decimal.Decimal, int) {}
func (noopMetrics) RecordReservationFailure(context.Context, string) {}
func (noopMetrics) RecordCompensationFailure(context.Context) {}
func (noopMetrics) RecordCartClearFailure(context.Context) {}

// OrderService places orders and serves them back to their owners
type OrderService struct {
	orders  order.OrderRepository
	stock   catalog.StockReservation
	carts   cart.Clearer
	numbers order.NumberGenerator
	pricing order.PricingPolicy
	logger  *zap.Logger
	metrics Metrics
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders order.OrderRepository,
	stock catalog.StockReservation,
	carts cart.Clearer,
	numbers order.NumberGenerator,
	pricing order.PricingPolicy,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:  orders,
		stock:   stock,
		carts:   carts,
		numbers: numbers,
		pricing: pricing,
		logger:  logger,
		metrics: noopMetrics{},
	}
}

// WithMetrics sets the business metrics recorder
func (s *OrderService) WithMetrics(m Metrics) *OrderService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// PlaceOrder reserves stock for every requested item, prices the order,
// persists it and clears the user's cart.
//
// Reservations are taken one product at a time in request order. If any
// step before the order is committed fails, every reservation taken so far
// is released in reverse order and the original error is returned.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (_ *PlaceOrderResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "PlaceOrder",
		attribute.String("user.id", userID.String()),
		attribute.Int("order.line_items", len(req.Items)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	paymentMethod, err := validatePlaceOrder(req)
	if err != nil {
		return nil, err
	}

	reserved := make([]*catalog.ReservedItem, 0, len(req.Items))
	for _, item := range req.Items {
		r, err := s.stock.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.metrics.RecordReservationFailure(ctx, reservationFailureReason(err))
			s.compensate(ctx, reserved, err)
			return nil, err
		}
		reserved = append(reserved, r)
	}

	o, err := s.assemble(userID, req, paymentMethod, reserved)
	if err != nil {
		s.compensate(ctx, reserved, err)
		return nil, err
	}

	if err := s.persist(ctx, o); err != nil {
		s.compensate(ctx, reserved, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.number", o.OrderNumber))
	result := &PlaceOrderResult{Order: ToOrderResponse(o)}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.metrics.RecordCartClearFailure(ctx)
		s.logger.Warn("cart clear failed after order was placed",
			zap.String("error_code", order.CodeCartClearFailure),
			zap.String("order_number", o.OrderNumber),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		result.Warnings = append(result.Warnings, order.ErrCartClearFailure.Message)
	}

	s.metrics.RecordOrderPlaced(ctx, o.Total, o.ItemCount())
	s.logger.Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.Total.String()),
	)

	return result, nil
}

func validatePlaceOrder(req PlaceOrderRequest) (order.PaymentMethod, error) {
	if len(req.Items) == 0 {
		return "", order.NewInvalidLineItemError("order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return "", order.NewInvalidLineItemError("product is required")
		}
		if item.Quantity < 1 {
			return "", order.NewInvalidLineItemError("quantity must be at least 1")
		}
	}

	method := order.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = order.PaymentMethodCOD
	}
	if !method.IsValid() {
		return "", order.ErrInvalidPaymentMethod
	}

	if !req.ShippingAddress.toDomain().IsComplete() {
		return "", order.ErrInvalidShippingAddress
	}
	return method, nil
}

// assemble builds the order from reservation snapshots
func (s *OrderService) assemble(userID uuid.UUID, req PlaceOrderRequest, method order.PaymentMethod, reserved []*catalog.ReservedItem) (*order.Order, error) {
	items := make([]order.LineItem, 0, len(reserved))
	priced := make([]order.PricedItem, 0, len(reserved))
	for _, r := range reserved {
		item, err := order.NewLineItem(r.ProductID, r.Name, r.Image, r.UnitPrice, r.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		priced = append(priced, order.PricedItem{UnitPrice: r.UnitPrice, Quantity: r.Quantity})
	}

	totals, err := s.pricing.ComputeTotals(priced)
	if err != nil {
		return nil, err
	}

	var billing *order.Address
	if req.BillingAddress != nil {
		b := req.BillingAddress.toDomain()
		billing = &b
	}

	return order.NewOrder(order.NewOrderParams{
		OrderNumber:     s.numbers.Next(),
		UserID:          userID,
		Items:           items,
		Totals:          totals,
		ShippingAddress: req.ShippingAddress.toDomain(),
		BillingAddress:  billing,
		PaymentMethod:   method,
		Notes:           req.Notes,
	})
}

// persist creates the order, drawing a fresh number if the unique index rejects one
func (s *OrderService) persist(ctx context.Context, o *order.Order) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = s.orders.Create(ctx, o)
		if !errors.Is(err, order.ErrDuplicateOrderNumber) || attempt == maxOrderNumberAttempts {
			break
		}
		s.logger.Warn("order number collision, regenerating",
			zap.String("order_number", o.OrderNumber),
			zap.Int("attempt", attempt),
		)
		o.AssignOrderNumber(s.numbers.Next())
	}
	if err != nil {
		return err
	}
	o.ClearDomainEvents()
	return nil
}

// compensate releases reservations in reverse order. Release failures are
// logged and counted but never replace cause, which is what the caller sees.
func (s *OrderService) compensate(ctx context.Context, reserved []*catalog.ReservedItem, cause error) {
	if len(reserved) == 0 {
		return
	}

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.stock.Release(releaseCtx, r); err != nil {
			s.metrics.RecordCompensationFailure(ctx)
			s.logger.Error("failed to release reserved stock, manual reconciliation required",
				zap.String("error_code", order.CodeCompensationFailure),
				zap.String("product_id", r.ProductID.String()),
				zap.Int("quantity", r.Quantity),
				zap.NamedError("cause", cause),
				zap.Error(err),
			)
		}
	}

	s.logger.Debug("reservations released after failed order",
		zap.Int("count", len(reserved)),
		zap.NamedError("cause", cause),
	)
}

func reservationFailureReason(err error) string {
	switch {
	case errors.Is(err, catalog.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, catalog.ErrProductNotFound):
		return "product_not_found"
	default:
		return "error"
	}
}

// ListForUser returns the user's orders, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, filter ListOrdersFilter) ([]OrderResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}

	orders, total, err := s.orders.FindByUser(ctx, userID, f)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses, total, nil
}

// GetForRequester returns one order if the requester owns it or is an admin
func (s *OrderService) GetForRequester(ctx context.Context, requester Requester, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(requester.UserID) && !requester.IsAdmin {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "Not authorized to view this order")
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// UpdateStatus applies a fulfillment transition. Cancelling returns the
// order's quantities to stock in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := order.OrderStatus(req.Status)
	previous := o.Status
	if err := o.TransitionTo(next, order.StatusChange{
		TrackingNumber:    req.TrackingNumber,
		EstimatedDelivery: req.EstimatedDelivery,
		Reason:            req.Reason,
	}); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, o, next == order.OrderStatusCancelled); err != nil {
		return nil, err
	}
	o.ClearDomainEvents()

	s.logger.Info("order status changed",
		zap.String("order_number", o.OrderNumber),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)

	response := ToOrderResponse(o)
	return &response, nil
}
