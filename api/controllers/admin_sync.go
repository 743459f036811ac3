package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	syncsvc "github.com/Stan-lee13/auracart-ng/internal/sync"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// TriggerSync runs one sync batch on demand. The same batches run on the
// cron cadence; the endpoint exists for operator-initiated refreshes.
func TriggerSync(svc syncsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			summary *syncsvc.Summary
			err     error
		)
		switch job := chi.URLParam(r, "job"); job {
		case "inventory":
			summary, err = svc.SyncInventory(r.Context())
		case "prices":
			summary, err = svc.SyncPrices(r.Context())
		case "tracking":
			summary, err = svc.SyncTracking(r.Context())
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown sync job %q", job))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
