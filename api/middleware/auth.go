package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	pkgauth "github.com/Stan-lee13/auracart-ng/pkg/auth"
	"github.com/Stan-lee13/auracart-ng/pkg/config"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// AdminAuth validates a bearer admin JWT and seeds the request context with
// the token subject.
func AdminAuth(cfg config.AdminJWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAdminToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxAdminSubject, claims.Subject)
			if logg != nil {
				ctx = logg.WithField(ctx, "admin_subject", claims.Subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
