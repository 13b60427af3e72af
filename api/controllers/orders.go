package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bucketcart/storefront-gateway/api/middleware"
	"github.com/bucketcart/storefront-gateway/api/responses"
	"github.com/bucketcart/storefront-gateway/api/validators"
	"github.com/bucketcart/storefront-gateway/internal/orders"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

// OrdersMine lists the caller's own orders.
func OrdersMine(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		list, err := svc.ListMine(r.Context(), middleware.BackendTokenFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderGet fetches a single order with its progress estimate. When the
// request carries hosted-payment return parameters the order is marked paid
// before the projection is assembled.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing order id"))
			return
		}

		completed, err := validators.ParseQueryBool(r, "paymentCompleted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var ret *orders.PaymentReturn
		if sessionID := strings.TrimSpace(r.URL.Query().Get("paymentSessionId")); sessionID != "" || completed {
			ret = &orders.PaymentReturn{SessionID: sessionID, Completed: completed}
		}

		ctx := r.Context()
		view, err := svc.GetOrder(ctx, middleware.BackendTokenFromContext(ctx), middleware.UserIDFromContext(ctx), orderID, ret)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// OrderProgressStream pushes progress estimates for one order as
// server-sent events, one per second, until the delivery window elapses
// or the client disconnects. Errors before the first event get a normal
// JSON error response; after that the stream just ends.
func OrderProgressStream(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing order id"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		ctx := r.Context()
		streaming := false
		err := svc.StreamProgress(ctx, middleware.BackendTokenFromContext(ctx), orderID, func(p orders.Progress) {
			if !streaming {
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				w.WriteHeader(http.StatusOK)
				streaming = true
			}
			payload, err := json.Marshal(p)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload)
			flusher.Flush()
		})
		if err != nil && !streaming && ctx.Err() == nil {
			responses.WriteError(ctx, logg, w, err)
		}
	}
}
