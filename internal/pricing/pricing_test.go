package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bucketcart/storefront-gateway/pkg/backend"
	"github.com/bucketcart/storefront-gateway/pkg/config"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(config.PricingConfig{
		ShippingFee:           40,
		FreeShippingThreshold: 1000,
		TaxRate:               0.05,
	})
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return calc
}

func item(price float64, qty int) backend.OrderItem {
	return backend.OrderItem{Price: decimal.NewFromFloat(price), Qty: qty}
}

func TestQuoteItemsWithCoupon(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	// 500 in items, 40 shipping, 25 tax, minus a 100 coupon leaves 465.
	quote := calc.QuoteItems([]backend.OrderItem{item(250, 2)})
	if !quote.ItemsPrice.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("items: %s", quote.ItemsPrice)
	}
	if !quote.ShippingPrice.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("shipping: %s", quote.ShippingPrice)
	}
	if !quote.TaxPrice.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("tax: %s", quote.TaxPrice)
	}
	if !quote.Total.Equal(decimal.NewFromInt(565)) {
		t.Fatalf("total: %s", quote.Total)
	}

	discounted := calc.ApplyDiscount(quote, decimal.NewFromInt(100))
	if !discounted.GrandTotal.Equal(decimal.NewFromInt(465)) {
		t.Fatalf("displayed total: %s", discounted.GrandTotal)
	}
}

func TestFreeShippingThreshold(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	quote := calc.QuoteItems([]backend.OrderItem{item(500, 2)})
	if !quote.ShippingPrice.IsZero() {
		t.Fatalf("expected free shipping at threshold, got %s", quote.ShippingPrice)
	}

	quote = calc.QuoteItems([]backend.OrderItem{item(999.99, 1)})
	if !quote.ShippingPrice.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected shipping below threshold, got %s", quote.ShippingPrice)
	}
}

func TestEmptyCartQuotesZero(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	quote := calc.QuoteItems(nil)
	if !quote.Total.IsZero() || !quote.ShippingPrice.IsZero() {
		t.Fatalf("empty cart should cost nothing, got %+v", quote)
	}
}

func TestDiscountNeverGoesNegative(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	quote := calc.QuoteItems([]backend.OrderItem{item(100, 1)})
	discounted := calc.ApplyDiscount(quote, decimal.NewFromInt(10000))
	if !discounted.GrandTotal.IsZero() {
		t.Fatalf("expected clamped total, got %s", discounted.GrandTotal)
	}

	// A negative discount is treated as no discount at all.
	discounted = calc.ApplyDiscount(quote, decimal.NewFromInt(-50))
	if !discounted.GrandTotal.Equal(quote.Total) {
		t.Fatalf("expected unchanged total, got %s", discounted.GrandTotal)
	}
}

func TestTaxRounding(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	// 33.33 * 0.05 = 1.6665, rounds to 1.67.
	quote := calc.QuoteItems([]backend.OrderItem{item(33.33, 1)})
	if !quote.TaxPrice.Equal(decimal.RequireFromString("1.67")) {
		t.Fatalf("tax: %s", quote.TaxPrice)
	}
}

func TestNewCalculatorRejectsBadRates(t *testing.T) {
	t.Parallel()
	if _, err := NewCalculator(config.PricingConfig{ShippingFee: -1}); err == nil {
		t.Fatal("expected negative shipping fee rejection")
	}
	if _, err := NewCalculator(config.PricingConfig{TaxRate: 1.5}); err == nil {
		t.Fatal("expected tax rate rejection")
	}
}
