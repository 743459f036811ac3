package controllers

import (
	"net/http"
	"strings"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	"github.com/Stan-lee13/auracart-ng/api/validators"
	productsvc "github.com/Stan-lee13/auracart-ng/internal/products"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

type importProductRequest struct {
	Supplier          string   `json:"supplier" validate:"required,oneof=aliexpress cjdropshipping"`
	SupplierProductID string   `json:"supplier_product_id" validate:"required"`
	Currency          string   `json:"currency" validate:"omitempty,len=3"`
	TrendingScore     *float64 `json:"trending_score" validate:"omitempty,gte=0,lte=1"`
	SalesVelocity     *float64 `json:"sales_velocity" validate:"omitempty,gte=0"`
}

// ImportProduct pulls a supplier listing into the catalog at a computed
// markup price.
func ImportProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload importProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.ImportFromSupplier(r.Context(), productsvc.ImportInput{
			Supplier:          enums.SupplierType(strings.ToLower(strings.TrimSpace(payload.Supplier))),
			SupplierProductID: strings.TrimSpace(payload.SupplierProductID),
			Currency:          enums.Currency(strings.ToUpper(strings.TrimSpace(payload.Currency))),
			TrendingScore:     payload.TrendingScore,
			SalesVelocity:     payload.SalesVelocity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}
