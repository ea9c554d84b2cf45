package order

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals(t *testing.T) {
	policy := DefaultPricingPolicy()

	tests := []struct {
		name         string
		items        []PricedItem
		wantSubtotal string
		wantTax      string
		wantShipping string
		wantTotal    string
	}{
		{
			name:         "below threshold pays shipping",
			items:        []PricedItem{{UnitPrice: dec("100"), Quantity: 2}},
			wantSubtotal: "200",
			wantTax:      "36",
			wantShipping: "50",
			wantTotal:    "286",
		},
		{
			name:         "above threshold ships free",
			items:        []PricedItem{{UnitPrice: dec("300"), Quantity: 1}, {UnitPrice: dec("150"), Quantity: 2}},
			wantSubtotal: "600",
			wantTax:      "108",
			wantShipping: "0",
			wantTotal:    "708",
		},
		{
			name:         "exactly at threshold still pays shipping",
			items:        []PricedItem{{UnitPrice: dec("250"), Quantity: 2}},
			wantSubtotal: "500",
			wantTax:      "90",
			wantShipping: "50",
			wantTotal:    "640",
		},
		{
			name:         "fractional prices stay exact",
			items:        []PricedItem{{UnitPrice: dec("0.10"), Quantity: 3}, {UnitPrice: dec("0.20"), Quantity: 1}},
			wantSubtotal: "0.5",
			wantTax:      "0.09",
			wantShipping: "50",
			wantTotal:    "50.59",
		},
		{
			name:         "tax is rounded to cents",
			items:        []PricedItem{{UnitPrice: dec("19.99"), Quantity: 1}},
			wantSubtotal: "19.99",
			wantTax:      "3.6",
			wantShipping: "50",
			wantTotal:    "73.59",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := policy.ComputeTotals(tt.items)
			require.NoError(t, err)

			assert.True(t, totals.Subtotal.Equal(dec(tt.wantSubtotal)), "subtotal %s", totals.Subtotal)
			assert.True(t, totals.Tax.Equal(dec(tt.wantTax)), "tax %s", totals.Tax)
			assert.True(t, totals.ShippingCost.Equal(dec(tt.wantShipping)), "shipping %s", totals.ShippingCost)
			assert.True(t, totals.Total.Equal(dec(tt.wantTotal)), "total %s", totals.Total)
			assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax).Add(totals.ShippingCost)))
		})
	}
}

func TestComputeTotals_InvalidLineItem(t *testing.T) {
	policy := DefaultPricingPolicy()

	_, err := policy.ComputeTotals([]PricedItem{{UnitPrice: dec("10"), Quantity: 0}})
	assert.True(t, errors.Is(err, ErrInvalidLineItem))

	_, err = policy.ComputeTotals([]PricedItem{{UnitPrice: dec("-1"), Quantity: 1}})
	assert.True(t, errors.Is(err, ErrInvalidLineItem))
}

func TestComputeTotals_CustomPolicy(t *testing.T) {
	policy := PricingPolicy{
		TaxRate:               dec("0.05"),
		FreeShippingThreshold: dec("100"),
		ShippingFee:           dec("7.5"),
	}
	require.NoError(t, policy.Validate())

	totals, err := policy.ComputeTotals([]PricedItem{{UnitPrice: dec("40"), Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, totals.Total.Equal(dec("91.5")))

	policy.ShippingFee = dec("-1")
	assert.Error(t, policy.Validate())
}
