package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	"github.com/Stan-lee13/auracart-ng/internal/reconcile"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// VerifyPaystackPayment polls Paystack for a transaction and reconciles the
// order if the provider reports success. The storefront calls this on the
// payment callback page; the webhook remains the source of truth.
func VerifyPaystackPayment(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := strings.TrimSpace(chi.URLParam(r, "reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference is required"))
			return
		}

		outcome, err := svc.VerifyPaystack(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}
