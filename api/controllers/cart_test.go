package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bucketcart/storefront-gateway/api/middleware"
	cartsvc "github.com/bucketcart/storefront-gateway/internal/cart"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
	"github.com/bucketcart/storefront-gateway/pkg/types"
)

type testCartService struct {
	getFn         func(ctx context.Context, userID string) (*cartsvc.View, error)
	addItemFn     func(ctx context.Context, userID string, item backend.OrderItem) (*cartsvc.View, error)
	setQuantityFn func(ctx context.Context, userID, productID string, qty int) (*cartsvc.View, error)
}

func (s *testCartService) Get(ctx context.Context, userID string) (*cartsvc.View, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return &cartsvc.View{Items: []backend.OrderItem{}}, nil
}

func (s *testCartService) AddItem(ctx context.Context, userID string, item backend.OrderItem) (*cartsvc.View, error) {
	if s.addItemFn != nil {
		return s.addItemFn(ctx, userID, item)
	}
	return &cartsvc.View{Items: []backend.OrderItem{item}}, nil
}

func (s *testCartService) SetQuantity(ctx context.Context, userID, productID string, qty int) (*cartsvc.View, error) {
	if s.setQuantityFn != nil {
		return s.setQuantityFn(ctx, userID, productID, qty)
	}
	return &cartsvc.View{Items: []backend.OrderItem{}}, nil
}

func (s *testCartService) RemoveItem(ctx context.Context, userID, productID string) (*cartsvc.View, error) {
	return &cartsvc.View{Items: []backend.OrderItem{}}, nil
}

func (s *testCartService) SetShippingAddress(ctx context.Context, userID string, addr types.Address) (*cartsvc.View, error) {
	return &cartsvc.View{Items: []backend.OrderItem{}, ShippingAddress: &addr}, nil
}

func (s *testCartService) SetPaymentMethod(ctx context.Context, userID, method string) (*cartsvc.View, error) {
	return &cartsvc.View{Items: []backend.OrderItem{}, PaymentMethod: method}, nil
}

func (s *testCartService) Clear(ctx context.Context, userID string) error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestCartAddItemForwardsPayload(t *testing.T) {
	var captured backend.OrderItem
	svc := &testCartService{
		addItemFn: func(ctx context.Context, userID string, item backend.OrderItem) (*cartsvc.View, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user %q", userID)
			}
			captured = item
			return &cartsvc.View{Items: []backend.OrderItem{item}}, nil
		},
	}

	body := `{"product":"p1","name":"Basmati Rice","qty":2,"price":"120.50"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()

	CartAddItem(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Product != "p1" || captured.Qty != 2 {
		t.Fatalf("unexpected item %+v", captured)
	}
	if !captured.Price.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("unexpected price %s", captured.Price)
	}
}

func TestCartAddItemRejectsMissingFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"qty":2}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()

	CartAddItem(&testCartService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestCartSetQuantityUsesRouteParam(t *testing.T) {
	var gotProduct string
	var gotQty int
	svc := &testCartService{
		setQuantityFn: func(ctx context.Context, userID, productID string, qty int) (*cartsvc.View, error) {
			gotProduct = productID
			gotQty = qty
			return &cartsvc.View{Items: []backend.OrderItem{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/p9", strings.NewReader(`{"qty":3}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productID", "p9")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	resp := httptest.NewRecorder()

	CartSetQuantity(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotProduct != "p9" || gotQty != 3 {
		t.Fatalf("unexpected call %s %d", gotProduct, gotQty)
	}
}

func TestCartGetSurfacesServiceError(t *testing.T) {
	svc := &testCartService{
		getFn: func(ctx context.Context, userID string) (*cartsvc.View, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNetwork, "state store unavailable")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()

	CartGet(svc, testLogger())(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
