package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

const sessionHeader = "X-Session-Id"

// Session requires the storefront session header and seeds the request
// context with it. The subject scopes carts and checkouts per browser
// session; it is opaque to the server.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := strings.TrimSpace(r.Header.Get(sessionHeader))
			if subject == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxSessionSubject, subject)
			if logg != nil {
				ctx = logg.WithField(ctx, "session_subject", subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
