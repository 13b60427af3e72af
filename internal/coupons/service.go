package coupons

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bucketcart/storefront-gateway/internal/notifications"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
)

// Applied is the coupon currently attached to a user's checkout.
type Applied struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

type couponValidator interface {
	ValidateCoupon(ctx context.Context, token, code, userID string) (*backend.CouponResult, error)
}

// Service validates coupon codes and tracks the applied discount per user.
// A failed validation never disturbs a previously applied coupon.
type Service interface {
	Apply(ctx context.Context, userID, token, code string) (*Applied, error)
	Current(ctx context.Context, userID string) (*Applied, bool)
	Remove(ctx context.Context, userID string)
}

type service struct {
	validator couponValidator
	notifier  notifications.Notifier

	mu      sync.Mutex
	applied map[string]Applied
}

// NewService wires coupon dependencies.
func NewService(validator couponValidator, notifier notifications.Notifier) (Service, error) {
	if validator == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		validator: validator,
		notifier:  notifier,
		applied:   make(map[string]Applied),
	}, nil
}

// Apply validates the code against the backend. Reapplying the same code
// revalidates it; the backend may have expired it since.
func (s *service) Apply(ctx context.Context, userID, token, code string) (*Applied, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	result, err := s.validator.ValidateCoupon(ctx, token, code, userID)
	if err != nil {
		s.notifier.Notify(ctx, userID, notifications.LevelError, "could not verify coupon, try again")
		return nil, err
	}

	if !result.Valid {
		message := result.Message
		if message == "" {
			message = "invalid coupon code"
		}
		s.notifier.Notify(ctx, userID, notifications.LevelError, message)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, message)
	}

	applied := Applied{Code: code, Discount: result.Discount}
	s.mu.Lock()
	s.applied[userID] = applied
	s.mu.Unlock()

	s.notifier.Notify(ctx, userID, notifications.LevelSuccess, fmt.Sprintf("coupon %s applied", code))
	return &applied, nil
}

// Current returns the applied coupon, if any.
func (s *service) Current(ctx context.Context, userID string) (*Applied, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied, ok := s.applied[userID]
	if !ok {
		return nil, false
	}
	return &applied, true
}

// Remove detaches the coupon. Removing when none is applied is a no-op.
func (s *service) Remove(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.applied, userID)
}
