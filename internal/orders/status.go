package orders

// Order status labels surfaced to customers. The paid label is a
// customer-facing sentence rather than a machine token and is matched
// exactly by the storefront.
const (
	StatusPending       = "pending"
	StatusPaid          = "Payment Confirmed - Awaiting Fulfillment"
	StatusProcessing    = "processing"
	StatusPaymentFailed = "payment_failed"
)
