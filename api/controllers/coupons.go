package controllers

import (
	"net/http"

	"github.com/bucketcart/storefront-gateway/api/middleware"
	"github.com/bucketcart/storefront-gateway/api/responses"
	"github.com/bucketcart/storefront-gateway/api/validators"
	"github.com/bucketcart/storefront-gateway/internal/coupons"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// CouponApply validates a coupon against the backend and records it for the
// caller's next checkout. A failed apply leaves any prior coupon in place.
func CouponApply(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var body applyCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		applied, err := svc.Apply(ctx, middleware.UserIDFromContext(ctx), middleware.BackendTokenFromContext(ctx), body.Code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, applied)
	}
}

// CouponCurrent returns the coupon staged for checkout, if any.
func CouponCurrent(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		applied, ok := svc.Current(r.Context(), middleware.UserIDFromContext(r.Context()))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no coupon applied"))
			return
		}
		responses.WriteSuccess(w, applied)
	}
}

// CouponRemove clears the staged coupon. Removing when none is staged is a
// no-op.
func CouponRemove(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		svc.Remove(r.Context(), middleware.UserIDFromContext(r.Context()))
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
