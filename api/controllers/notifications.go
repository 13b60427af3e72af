package controllers

import (
	"net/http"

	"github.com/bucketcart/storefront-gateway/api/middleware"
	"github.com/bucketcart/storefront-gateway/api/responses"
	"github.com/bucketcart/storefront-gateway/api/validators"
	"github.com/bucketcart/storefront-gateway/internal/notifications"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

// NotificationsList returns the caller's toast feed, newest first. Admins
// share a single feed for back-office alerts.
func NotificationsList(svc notifications.Service, logg *logger.Logger, adminFeed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		unreadOnly, err := validators.ParseQueryBool(r, "unreadOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		feed := middleware.UserIDFromContext(r.Context())
		if adminFeed {
			feed = notifications.AdminFeed
		}

		list, err := svc.List(r.Context(), feed, unreadOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// NotificationsMarkAllRead clears the unread flag on the caller's feed.
func NotificationsMarkAllRead(svc notifications.Service, logg *logger.Logger, adminFeed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		feed := middleware.UserIDFromContext(r.Context())
		if adminFeed {
			feed = notifications.AdminFeed
		}

		count, err := svc.MarkAllRead(r.Context(), feed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"marked": count})
	}
}
