package controllers

import (
	"net/http"

	"github.com/bucketcart/storefront-gateway/api/middleware"
	"github.com/bucketcart/storefront-gateway/api/responses"
	checkoutsvc "github.com/bucketcart/storefront-gateway/internal/checkout"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

// Checkout turns the caller's cart into a backend order and, for hosted
// payment methods, returns the payment link to redirect to.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		ctx := r.Context()
		result, err := svc.PlaceOrder(ctx, middleware.BackendTokenFromContext(ctx), middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
