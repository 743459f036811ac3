package controllers

import (
	"net/http"
	"strings"

	"github.com/Stan-lee13/auracart-ng/api/middleware"
	"github.com/Stan-lee13/auracart-ng/api/responses"
	"github.com/Stan-lee13/auracart-ng/api/validators"
	checkoutsvc "github.com/Stan-lee13/auracart-ng/internal/checkout"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
	"github.com/Stan-lee13/auracart-ng/pkg/types"
)

type checkoutRequest struct {
	Email           string                  `json:"email" validate:"required,email"`
	Items           []checkoutsvc.ItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.Address           `json:"shipping_address"`
	Provider        string                  `json:"provider" validate:"required,oneof=paystack nowpayments"`
	PayCurrency     string                  `json:"pay_currency"`
	CallbackURL     string                  `json:"callback_url" validate:"omitempty,url"`
}

// Checkout snapshots the submitted items at server prices, creates the order,
// and hands off to the selected payment provider.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), checkoutsvc.Input{
			Subject:         middleware.SessionSubjectFromContext(r.Context()),
			Email:           strings.TrimSpace(payload.Email),
			Items:           payload.Items,
			ShippingAddress: payload.ShippingAddress,
			Provider:        enums.PaymentProvider(strings.ToLower(strings.TrimSpace(payload.Provider))),
			PayCurrency:     payload.PayCurrency,
			CallbackURL:     payload.CallbackURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
