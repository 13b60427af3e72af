package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/bucketcart/storefront-gateway/internal/notifications"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

type orderClient interface {
	GetOrder(ctx context.Context, token, orderID string) (*backend.Order, error)
	ListMyOrders(ctx context.Context, token string) ([]backend.Order, error)
	PayOrder(ctx context.Context, token, orderID string, details backend.PaymentDetails) (*backend.Order, error)
	ShipOrder(ctx context.Context, token, orderID string) (*backend.Order, error)
	DeliverOrder(ctx context.Context, token, orderID string) (*backend.Order, error)
}

// PaymentReturn carries the query parameters appended by the hosted checkout
// redirect.
type PaymentReturn struct {
	SessionID string
	Completed bool
}

// OrderView pairs the backend order with its estimated progress.
type OrderView struct {
	Order    *backend.Order `json:"order"`
	Progress Progress       `json:"progress"`
}

// Service assembles order views and applies back-office transitions.
type Service interface {
	GetOrder(ctx context.Context, token, userID, orderID string, ret *PaymentReturn) (*OrderView, error)
	StreamProgress(ctx context.Context, token, orderID string, observe func(Progress)) error
	ListMine(ctx context.Context, token string) ([]backend.Order, error)
	MarkPaid(ctx context.Context, token, orderID string) (*backend.Order, error)
	MarkShipped(ctx context.Context, token, orderID string) (*backend.Order, error)
	MarkDelivered(ctx context.Context, token, orderID string) (*backend.Order, error)
}

type service struct {
	client    orderClient
	estimator *Estimator
	notifier  notifications.Notifier
	logg      *logger.Logger
}

// NewService wires the order view dependencies.
func NewService(client orderClient, estimator *Estimator, notifier notifications.Notifier, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("order client required")
	}
	if estimator == nil {
		return nil, fmt.Errorf("progress estimator required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		client:    client,
		estimator: estimator,
		notifier:  notifier,
		logg:      logg,
	}, nil
}

// GetOrder loads the order and, when the hosted checkout redirect reports a
// completed payment, marks it paid exactly once. An already-paid order is
// never re-paid, so a refreshed return URL stays harmless.
func (s *service) GetOrder(ctx context.Context, token, userID, orderID string, ret *PaymentReturn) (*OrderView, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID)
	}

	order, err := s.client.GetOrder(ctx, token, orderID)
	if err != nil {
		return nil, err
	}

	if ret != nil && ret.Completed && strings.TrimSpace(ret.SessionID) != "" && !order.IsPaid {
		paid, err := s.client.PayOrder(ctx, token, orderID, backend.PaymentDetails{
			PaymentSessionID: ret.SessionID,
			Payer:            userID,
		})
		if err != nil {
			// The order itself loaded fine; surface it with the failure
			// so the storefront can offer a retry.
			s.notifier.Notify(ctx, userID, notifications.LevelError, "payment confirmation failed, please retry")
			return nil, err
		}
		order = paid
		s.notifier.Notify(ctx, userID, notifications.LevelSuccess, "payment received")
	}

	progress, err := s.estimator.Estimate(ctx, order)
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: order, Progress: progress}, nil
}

// StreamProgress loads the order once and feeds the observer a fresh
// estimate every second until the progress window elapses or the caller
// disconnects.
func (s *service) StreamProgress(ctx context.Context, token, orderID string, observe func(Progress)) error {
	if strings.TrimSpace(orderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID)
	}

	order, err := s.client.GetOrder(ctx, token, orderID)
	if err != nil {
		return err
	}
	return s.estimator.Countdown(ctx, order, observe)
}

func (s *service) ListMine(ctx context.Context, token string) ([]backend.Order, error) {
	return s.client.ListMyOrders(ctx, token)
}

// MarkPaid records a manual payment from the back office.
func (s *service) MarkPaid(ctx context.Context, token, orderID string) (*backend.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.client.PayOrder(ctx, token, orderID, backend.PaymentDetails{})
}

func (s *service) MarkShipped(ctx context.Context, token, orderID string) (*backend.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.client.ShipOrder(ctx, token, orderID)
}

func (s *service) MarkDelivered(ctx context.Context, token, orderID string) (*backend.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.client.DeliverOrder(ctx, token, orderID)
}
