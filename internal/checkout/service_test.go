package checkout

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bucketcart/storefront-gateway/internal/cart"
	"github.com/bucketcart/storefront-gateway/internal/coupons"
	"github.com/bucketcart/storefront-gateway/internal/notifications"
	"github.com/bucketcart/storefront-gateway/internal/pricing"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	"github.com/bucketcart/storefront-gateway/pkg/config"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/square"
	"github.com/bucketcart/storefront-gateway/pkg/types"
)

type stubOrders struct {
	created *backend.OrderDraft
	err     error
}

func (s *stubOrders) CreateOrder(ctx context.Context, token string, draft backend.OrderDraft) (*backend.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &draft
	return &backend.Order{ID: "o1", TotalPrice: draft.TotalPrice}, nil
}

type stubLinker struct {
	params square.PaymentLinkParams
	err    error
}

func (s *stubLinker) CreatePaymentLink(ctx context.Context, params square.PaymentLinkParams) (*square.HostedCheckout, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.params = params
	return &square.HostedCheckout{PaymentLinkID: "pl1", URL: "https://square.link/pl1"}, nil
}

type stubCoupons struct {
	applied *coupons.Applied
	removed bool
}

func (s *stubCoupons) Current(ctx context.Context, userID string) (*coupons.Applied, bool) {
	if s.applied == nil {
		return nil, false
	}
	return s.applied, true
}

func (s *stubCoupons) Remove(ctx context.Context, userID string) {
	s.removed = true
}

type quietNotifier struct{}

func (quietNotifier) Notify(ctx context.Context, userID string, level notifications.Level, message string) {
}

func (quietNotifier) NotifyWithSound(ctx context.Context, userID string, level notifications.Level, message, sound string) {
}

type memState struct {
	data map[string][]byte
}

func (m *memState) Put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memState) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memState) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func newTestCheckout(t *testing.T, cpns *stubCoupons, linker paymentLinker) (Service, *stubOrders, cart.Service) {
	t.Helper()
	calc, err := pricing.NewCalculator(config.PricingConfig{
		ShippingFee:           40,
		FreeShippingThreshold: 1000,
		TaxRate:               0.05,
	})
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	carts, err := cart.NewService(&memState{data: make(map[string][]byte)}, calc)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	orders := &stubOrders{}
	svc, err := NewService(Params{
		Orders:        orders,
		Carts:         carts,
		Coupons:       cpns,
		Payments:      linker,
		Calculator:    calc,
		Notifier:      quietNotifier{},
		ReturnURLBase: "https://shop.example",
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	return svc, orders, carts
}

func fillCart(t *testing.T, carts cart.Service, method string) {
	t.Helper()
	ctx := context.Background()
	if _, err := carts.AddItem(ctx, "u1", backend.OrderItem{
		Product: "p1",
		Name:    "Paneer",
		Price:   decimal.NewFromInt(250),
		Qty:     2,
	}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := carts.SetShippingAddress(ctx, "u1", types.Address{
		FullName:   "Asha Rao",
		Phone:      "9999999999",
		Address:    "12 MG Road",
		City:       "Bengaluru",
		PostalCode: "560001",
		Country:    "India",
	}); err != nil {
		t.Fatalf("set address: %v", err)
	}
	if _, err := carts.SetPaymentMethod(ctx, "u1", method); err != nil {
		t.Fatalf("set method: %v", err)
	}
}

func TestPlaceOrderWithCouponAndHostedCheckout(t *testing.T) {
	t.Parallel()
	cpns := &stubCoupons{applied: &coupons.Applied{Code: "SAVE100", Discount: decimal.NewFromInt(100)}}
	linker := &stubLinker{}
	svc, orders, carts := newTestCheckout(t, cpns, linker)
	fillCart(t, carts, MethodSquare)

	result, err := svc.PlaceOrder(context.Background(), "tok", "u1")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// 500 items + 40 shipping + 25 tax - 100 coupon.
	if !orders.created.TotalPrice.Equal(decimal.NewFromInt(465)) {
		t.Fatalf("draft total: %s", orders.created.TotalPrice)
	}
	if orders.created.CouponCode != "SAVE100" {
		t.Fatalf("coupon not on draft: %+v", orders.created)
	}
	if result.PaymentURL != "https://square.link/pl1" {
		t.Fatalf("payment url: %q", result.PaymentURL)
	}
	if linker.params.AmountCents != 46500 {
		t.Fatalf("charged cents: %d", linker.params.AmountCents)
	}
	if !strings.Contains(linker.params.RedirectURL, "/order/o1?") ||
		!strings.Contains(linker.params.RedirectURL, "paymentCompleted=true") ||
		!strings.Contains(linker.params.RedirectURL, "paymentSessionId=") {
		t.Fatalf("redirect url malformed: %s", linker.params.RedirectURL)
	}

	// The cart is consumed and the coupon detached.
	view, err := carts.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("cart not cleared: %d items", len(view.Items))
	}
	if !cpns.removed {
		t.Fatal("coupon not removed after placement")
	}
}

func TestPlaceOrderPayOnDelivery(t *testing.T) {
	t.Parallel()
	svc, orders, carts := newTestCheckout(t, &stubCoupons{}, nil)
	fillCart(t, carts, MethodPayOnDelivery)

	result, err := svc.PlaceOrder(context.Background(), "tok", "u1")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if result.PaymentURL != "" {
		t.Fatalf("unexpected payment url %q", result.PaymentURL)
	}
	if !orders.created.TotalPrice.Equal(decimal.NewFromInt(565)) {
		t.Fatalf("draft total: %s", orders.created.TotalPrice)
	}
}

func TestPlaceOrderValidatesCart(t *testing.T) {
	t.Parallel()
	svc, _, carts := newTestCheckout(t, &stubCoupons{}, nil)

	// Empty cart.
	_, err := svc.PlaceOrder(context.Background(), "tok", "u1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for empty cart, got %v", err)
	}

	// Items but no address.
	if _, err := carts.AddItem(context.Background(), "u1", backend.OrderItem{
		Product: "p1", Price: decimal.NewFromInt(10), Qty: 1,
	}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, err = svc.PlaceOrder(context.Background(), "tok", "u1")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for missing address, got %v", err)
	}
}

func TestPlaceOrderRejectsSquareWhenUnconfigured(t *testing.T) {
	t.Parallel()
	svc, _, carts := newTestCheckout(t, &stubCoupons{}, nil)
	fillCart(t, carts, MethodSquare)

	_, err := svc.PlaceOrder(context.Background(), "tok", "u1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateFailureLeavesCartIntact(t *testing.T) {
	t.Parallel()
	svc, orders, carts := newTestCheckout(t, &stubCoupons{}, nil)
	fillCart(t, carts, MethodPayOnDelivery)
	orders.err = pkgerrors.New(pkgerrors.CodeNetwork, "backend unreachable")

	if _, err := svc.PlaceOrder(context.Background(), "tok", "u1"); err == nil {
		t.Fatal("expected create failure")
	}
	view, err := carts.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("cart should survive a failed placement, got %d items", len(view.Items))
	}
}

func TestPaymentLinkFailureKeepsOrder(t *testing.T) {
	t.Parallel()
	linker := &stubLinker{err: pkgerrors.New(pkgerrors.CodePayment, "square unavailable")}
	svc, _, carts := newTestCheckout(t, &stubCoupons{}, linker)
	fillCart(t, carts, MethodSquare)

	result, err := svc.PlaceOrder(context.Background(), "tok", "u1")
	if err != nil {
		t.Fatalf("placement should survive a link failure: %v", err)
	}
	if result.Order == nil || result.Order.ID != "o1" {
		t.Fatalf("order missing from result: %+v", result)
	}
	if result.PaymentURL != "" {
		t.Fatalf("unexpected payment url %q", result.PaymentURL)
	}
}
