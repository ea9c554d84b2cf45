package order

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// PricingPolicy holds the configured tax and shipping rules
type PricingPolicy struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPricingPolicy returns 18% tax with free shipping above 500 and a flat fee of 50 otherwise
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		TaxRate:               decimal.RequireFromString("0.18"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		ShippingFee:           decimal.NewFromInt(50),
	}
}

// PricedItem is the pricing input for one line
type PricedItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the pricing result. Total always equals Subtotal + Tax + ShippingCost.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
}

// moneyPlaces is the number of decimal places money amounts are rounded to
const moneyPlaces = 2

// ComputeTotals prices items under the policy.
// Tax is rounded half away from zero to two places; the total is the exact sum of the rounded parts.
func (p PricingPolicy) ComputeTotals(items []PricedItem) (Totals, error) {
	subtotal := decimal.Zero
	for i, item := range items {
		if item.UnitPrice.IsNegative() {
			return Totals{}, NewInvalidLineItemError(fmt.Sprintf("item %d: unit price cannot be negative", i))
		}
		if item.Quantity < 1 {
			return Totals{}, NewInvalidLineItemError(fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
		subtotal = subtotal.Add(LineSubtotal(item.UnitPrice, item.Quantity))
	}

	tax := subtotal.Mul(p.TaxRate).Round(moneyPlaces)

	shipping := p.ShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Total:        subtotal.Add(tax).Add(shipping),
	}, nil
}

// Validate rejects policies that would produce negative amounts
func (p PricingPolicy) Validate() error {
	if p.TaxRate.IsNegative() || p.FreeShippingThreshold.IsNegative() || p.ShippingFee.IsNegative() {
		return shared.NewDomainError("INVALID_PRICING_POLICY", "Pricing policy values cannot be negative")
	}
	return nil
}

// LineSubtotal returns unitPrice * quantity
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
