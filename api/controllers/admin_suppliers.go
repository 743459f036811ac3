package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	"github.com/Stan-lee13/auracart-ng/api/validators"
	"github.com/Stan-lee13/auracart-ng/internal/suppliers"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// SuppliersHealth probes every registered supplier.
func SuppliersHealth(manager *suppliers.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, manager.CheckHealth(r.Context()))
	}
}

type supplierSearchEntry struct {
	Supplier string                 `json:"supplier"`
	Result   suppliers.SearchResult `json:"result"`
	Error    string                 `json:"error,omitempty"`
}

// SuppliersSearch fans a product query out across suppliers. Failing
// suppliers surface their error alongside the healthy results.
func SuppliersSearch(manager *suppliers.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter q is required"))
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", 20, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcomes := manager.SearchProducts(r.Context(), suppliers.SearchParams{
			Query:    query,
			Page:     page,
			PageSize: pageSize,
		})

		entries := make([]supplierSearchEntry, 0, len(outcomes))
		for _, outcome := range outcomes {
			entry := supplierSearchEntry{Supplier: string(outcome.Supplier), Result: outcome.Result}
			if outcome.Err != nil {
				entry.Error = outcome.Err.Error()
			}
			entries = append(entries, entry)
		}
		responses.WriteSuccess(w, entries)
	}
}

// SuppliersCompare ranks suppliers for a product query.
func SuppliersCompare(manager *suppliers.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(chi.URLParam(r, "query"))
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "comparison query is required"))
			return
		}

		comparison, err := manager.CompareProduct(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compare product"))
			return
		}
		responses.WriteSuccess(w, comparison)
	}
}
