package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bucketcart/storefront-gateway/internal/cart"
	"github.com/bucketcart/storefront-gateway/internal/coupons"
	"github.com/bucketcart/storefront-gateway/internal/pricing"
	"github.com/bucketcart/storefront-gateway/internal/notifications"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
	"github.com/bucketcart/storefront-gateway/pkg/square"
)

// Payment methods the storefront offers at checkout.
const (
	MethodSquare        = "Square"
	MethodPayOnDelivery = "PayOnDelivery"
)

type orderCreator interface {
	CreateOrder(ctx context.Context, token string, draft backend.OrderDraft) (*backend.Order, error)
}

type paymentLinker interface {
	CreatePaymentLink(ctx context.Context, params square.PaymentLinkParams) (*square.HostedCheckout, error)
}

type couponSource interface {
	Current(ctx context.Context, userID string) (*coupons.Applied, bool)
	Remove(ctx context.Context, userID string)
}

// Result is the outcome of placing an order. PaymentURL is set only for
// hosted checkout; pay-on-delivery orders complete without one.
type Result struct {
	Order      *backend.Order `json:"order"`
	PaymentURL string         `json:"paymentUrl,omitempty"`
}

// Service turns the current cart into a backend order.
type Service interface {
	PlaceOrder(ctx context.Context, token, userID string) (*Result, error)
}

var centsFactor = decimal.NewFromInt(100)

type service struct {
	orders        orderCreator
	carts         cart.Service
	coupons       couponSource
	payments      paymentLinker
	calc          *pricing.Calculator
	notifier      notifications.Notifier
	returnURLBase string
	logg          *logger.Logger
}

// Params carries the checkout dependencies. Payments may be nil when hosted
// checkout is not configured; Square orders are then rejected up front.
type Params struct {
	Orders        orderCreator
	Carts         cart.Service
	Coupons       couponSource
	Payments      paymentLinker
	Calculator    *pricing.Calculator
	Notifier      notifications.Notifier
	ReturnURLBase string
	Logger        *logger.Logger
}

// NewService wires the checkout flow.
func NewService(params Params) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon source required")
	}
	if params.Calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Payments != nil && strings.TrimSpace(params.ReturnURLBase) == "" {
		return nil, fmt.Errorf("return url base required for hosted checkout")
	}
	return &service{
		orders:        params.Orders,
		carts:         params.Carts,
		coupons:       params.Coupons,
		payments:      params.Payments,
		calc:          params.Calculator,
		notifier:      params.Notifier,
		returnURLBase: strings.TrimRight(params.ReturnURLBase, "/"),
		logg:          params.Logger,
	}, nil
}

// PlaceOrder snapshots the cart into an order draft, creates the order, and
// only then clears the cart. A failed create leaves the cart intact.
func (s *service) PlaceOrder(ctx context.Context, token, userID string) (*Result, error) {
	view, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if view.ShippingAddress == nil || !view.ShippingAddress.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	method := view.PaymentMethod
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if method != MethodSquare && method != MethodPayOnDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", method))
	}
	if method == MethodSquare && s.payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card payment is not available right now")
	}

	quote := view.Quote
	draft := backend.OrderDraft{
		OrderItems:      view.Items,
		ShippingAddress: *view.ShippingAddress,
		PaymentMethod:   method,
		ItemsPrice:      quote.ItemsPrice,
		ShippingPrice:   quote.ShippingPrice,
		TaxPrice:        quote.TaxPrice,
		TotalPrice:      quote.Total,
	}
	if applied, ok := s.coupons.Current(ctx, userID); ok {
		draft.CouponCode = applied.Code
		draft.CouponDiscount = applied.Discount
		quote = s.calc.ApplyDiscount(quote, applied.Discount)
		draft.TotalPrice = quote.GrandTotal
	}

	order, err := s.orders.CreateOrder(ctx, token, draft)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID)
	}

	// The order exists; a cart cleanup failure must not undo the sale.
	if err := s.carts.Clear(ctx, userID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart clear after order failed")
	}
	s.coupons.Remove(ctx, userID)

	result := &Result{Order: order}
	if method == MethodSquare {
		link, err := s.payments.CreatePaymentLink(ctx, square.PaymentLinkParams{
			Name:        fmt.Sprintf("BucketCart order %s", order.ID),
			AmountCents: order.TotalPrice.Mul(centsFactor).IntPart(),
			RedirectURL: s.returnURL(order.ID),
			Note:        order.ID,
		})
		if err != nil {
			// The order stands; the storefront offers a retry from the
			// order page instead of failing the placement.
			s.notifier.Notify(ctx, userID, notifications.LevelError, "payment page could not be opened, retry from your order")
			return result, nil
		}
		result.PaymentURL = link.URL
	}

	s.notifier.Notify(ctx, userID, notifications.LevelSuccess, "order placed")
	return result, nil
}

func (s *service) returnURL(orderID string) string {
	query := url.Values{}
	query.Set("paymentSessionId", orderID)
	query.Set("paymentCompleted", "true")
	return fmt.Sprintf("%s/order/%s?%s", s.returnURLBase, orderID, query.Encode())
}
