package service

import "context"

// Job queue names (Redis list keys).
const (
	QueueReceipts       = "queue:receipts"
	QueueClosureReports = "queue:closure_reports"
)

// JobDispatcher enqueues background jobs. Implemented by the worker package;
// services hold the interface so unit tests can swap in a recorder.
type JobDispatcher interface {
	Dispatch(ctx context.Context, queue string, payload interface{}) error
}

// ReceiptJob asks a worker to render a sale receipt PDF and, when the
// customer left an email, send it.
type ReceiptJob struct {
	SaleID        string `json:"sale_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// ClosureReportJob asks a worker to render the end-of-session report PDF and
// mail it to the configured report address.
type ClosureReportJob struct {
	ClosureID string `json:"closure_id"`
}
