package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bucketcart/storefront-gateway/api/responses"
	pkgauth "github.com/bucketcart/storefront-gateway/pkg/auth"
	"github.com/bucketcart/storefront-gateway/pkg/auth/session"
	"github.com/bucketcart/storefront-gateway/pkg/config"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

// SessionResolver looks up the server-side session for a token's jti.
type SessionResolver interface {
	BackendToken(ctx context.Context, accessID string) (string, error)
}

// Auth validates a bearer token, resolves the upstream session, and seeds the
// request context with the claims and the backend bearer token.
func Auth(cfg config.JWTConfig, sessions SessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeAuth, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeAuth, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeAuth, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeAuth, "missing session id"))
				return
			}

			backendToken := ""
			if sessions != nil {
				backendToken, err = sessions.BackendToken(r.Context(), claims.ID)
				if err != nil {
					if errors.Is(err, session.ErrNoSession) {
						responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeAuth, "session expired"))
						return
					}
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "validate session"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxIsAdmin, claims.IsAdmin)
			ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
			if backendToken != "" {
				ctx = context.WithValue(ctx, ctxBackendToken, backendToken)
			}

			if logg != nil {
				fields := map[string]any{
					"user_id": claims.UserID,
				}
				if claims.IsAdmin {
					fields["is_admin"] = true
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose token lacks the admin flag. It must be
// mounted inside an Auth chain.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdminFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
