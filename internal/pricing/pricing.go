package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bucketcart/storefront-gateway/pkg/backend"
	"github.com/bucketcart/storefront-gateway/pkg/config"
)

// Quote is the priced view of a cart. All amounts are currency units rounded
// to two decimal places.
type Quote struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	Total         decimal.Decimal `json:"totalPrice"`
	Discount      decimal.Decimal `json:"discount"`
	GrandTotal    decimal.Decimal `json:"displayedTotal"`
}

// Calculator derives quotes from cart items using the configured rules.
type Calculator struct {
	shippingFee   decimal.Decimal
	freeThreshold decimal.Decimal
	taxRate       decimal.Decimal
}

// NewCalculator validates the configured rates and builds a calculator.
func NewCalculator(cfg config.PricingConfig) (*Calculator, error) {
	if cfg.ShippingFee < 0 {
		return nil, fmt.Errorf("shipping fee must be non-negative")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return nil, fmt.Errorf("tax rate must be in [0, 1)")
	}
	return &Calculator{
		shippingFee:   decimal.NewFromFloat(cfg.ShippingFee),
		freeThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		taxRate:       decimal.NewFromFloat(cfg.TaxRate),
	}, nil
}

// QuoteItems prices the cart lines. Shipping is waived at or above the free
// threshold; tax applies to the item subtotal only.
func (c *Calculator) QuoteItems(items []backend.OrderItem) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Qty <= 0 {
			continue
		}
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	subtotal = subtotal.Round(2)

	shipping := c.shippingFee
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(c.freeThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(c.taxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax).Round(2)

	return Quote{
		ItemsPrice:    subtotal,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		Total:         total,
		Discount:      decimal.Zero,
		GrandTotal:    total,
	}
}

// ApplyDiscount recomputes the displayed total for a coupon discount. The
// result never goes below zero, no matter how large the discount.
func (c *Calculator) ApplyDiscount(q Quote, discount decimal.Decimal) Quote {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	q.Discount = discount.Round(2)
	grand := q.Total.Sub(q.Discount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}
	q.GrandTotal = grand.Round(2)
	return q
}
