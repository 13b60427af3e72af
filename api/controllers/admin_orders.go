package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bucketcart/storefront-gateway/api/middleware"
	"github.com/bucketcart/storefront-gateway/api/responses"
	internalorders "github.com/bucketcart/storefront-gateway/internal/orders"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

type adminOrderLister interface {
	ListOrders(ctx context.Context, token string) ([]backend.Order, error)
}

// OrderFeed is the polled back-office cache kept warm by the order poller.
type OrderFeed interface {
	Snapshot() []backend.Order
}

// AdminOrdersList returns every order for the back office. The live fetch is
// authoritative; when it fails and the background feed holds a snapshot, the
// snapshot is served instead so the dashboard degrades rather than blanks.
func AdminOrdersList(lister adminOrderLister, feed OrderFeed, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders backend unavailable"))
			return
		}

		ctx := r.Context()
		list, err := lister.ListOrders(ctx, middleware.BackendTokenFromContext(ctx))
		if err != nil {
			if feed != nil {
				if cached := feed.Snapshot(); len(cached) > 0 {
					if logg != nil {
						logg.Warn(logg.WithField(ctx, "error", err.Error()), "live order fetch failed, serving polled feed")
					}
					responses.WriteSuccess(w, cached)
					return
				}
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminOrderTransition applies one back-office transition to an order.
func AdminOrderTransition(svc internalorders.Service, logg *logger.Logger, transition string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		ctx := r.Context()
		token := middleware.BackendTokenFromContext(ctx)

		var (
			order *backend.Order
			err   error
		)
		switch transition {
		case "pay":
			order, err = svc.MarkPaid(ctx, token, orderID)
		case "ship":
			order, err = svc.MarkShipped(ctx, token, orderID)
		case "deliver":
			order, err = svc.MarkDelivered(ctx, token, orderID)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "unknown transition")
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
