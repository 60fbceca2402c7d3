package audithook

// Action constants for audit events.
const (
	// Invoice actions
	ActionInvoiceCreated  = "invoice.created"
	ActionInvoiceFunded   = "invoice.funded"
	ActionInvoiceReleased = "invoice.released"
	ActionInvoiceRefunded = "invoice.refunded"

	// Dispute actions
	ActionDisputeRaised   = "dispute.raised"
	ActionDisputeResolved = "dispute.resolved"

	// Failure actions
	ActionTransitionRejected = "transition.rejected"
	ActionTransferFailed     = "transfer.failed"
)

// Resource constants for audit events.
const (
	ResourceInvoice = "invoice"
	ResourceDispute = "dispute"
)

// Category constants for audit events.
const (
	CategoryEscrow     = "escrow"
	CategorySettlement = "settlement"
	CategoryDispute    = "dispute"
	CategoryAccess     = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
