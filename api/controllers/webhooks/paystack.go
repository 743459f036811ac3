package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/Stan-lee13/auracart-ng/api/responses"
	"github.com/Stan-lee13/auracart-ng/internal/payments/paystack"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

const maxWebhookBody = 1 << 20

type paystackReconciler interface {
	HandlePaystackWebhook(ctx context.Context, body []byte, signature string) error
}

// PaystackWebhook verifies the raw-body signature and reconciles the event.
// Paystack retries on non-2xx, so anything past the signature gate answers
// 200 even when the order is not actionable.
func PaystackWebhook(svc paystackReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(paystack.SignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "signature missing"))
			return
		}

		if err := svc.HandlePaystackWebhook(ctx, body, signature); err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeUnauthorized {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if logg != nil {
				logg.Error(ctx, "paystack webhook processing failed", err)
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}
