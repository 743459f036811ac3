package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Stan-lee13/auracart-ng/api/middleware"
	"github.com/Stan-lee13/auracart-ng/api/responses"
	"github.com/Stan-lee13/auracart-ng/api/validators"
	cartsvc "github.com/Stan-lee13/auracart-ng/internal/cart"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// GetCart returns the session's cart joined against current catalog prices.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), middleware.SessionSubjectFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AddCartItem merges a line into the session's cart.
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartsvc.AddItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), middleware.SessionSubjectFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type updateCartItemRequest struct {
	VariantID *string `json:"variant_id"`
	Quantity  int     `json:"quantity" validate:"min=0"`
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func UpdateCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateQuantity(r.Context(), middleware.SessionSubjectFromContext(r.Context()), productID, payload.VariantID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ClearCart drops the session's cart entirely.
func ClearCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), middleware.SessionSubjectFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
