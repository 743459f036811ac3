package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	"github.com/Stan-lee13/auracart-ng/api/validators"
	"github.com/Stan-lee13/auracart-ng/internal/automation"
	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// ListAutomationLogs serves the automation audit trail with optional
// type/status/order filters.
func ListAutomationLogs(repo *automation.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := automation.ListFilter{}

		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			automationType := enums.AutomationType(raw)
			if !automationType.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown automation type %q", raw))
				return
			}
			filter.AutomationType = &automationType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.AutomationStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown automation status %q", raw))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("order_id")); raw != "" {
			orderID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
				return
			}
			filter.OrderID = &orderID
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Limit = limit

		rows, err := repo.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list automation logs"))
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
