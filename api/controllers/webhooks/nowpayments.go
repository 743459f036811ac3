package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	"github.com/Stan-lee13/auracart-ng/internal/payments/nowpayments"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

type nowpaymentsReconciler interface {
	HandleNOWPaymentsWebhook(ctx context.Context, body []byte, signature string) error
}

// NOWPaymentsIPN verifies the sorted-JSON HMAC and reconciles the payment.
func NOWPaymentsIPN(svc nowpaymentsReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(nowpayments.SignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "signature missing"))
			return
		}

		if err := svc.HandleNOWPaymentsWebhook(ctx, body, signature); err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeUnauthorized {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if logg != nil {
				logg.Error(ctx, "nowpayments ipn processing failed", err)
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}
