package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound               = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists          = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput           = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict    = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized           = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden              = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState           = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidStateTransition = NewDomainError("INVALID_STATE_TRANSITION", "Status transition not allowed")
	ErrInsufficientInventory  = NewDomainError("INSUFFICIENT_INVENTORY", "Not enough tokens available for this property")
	ErrGatewayUnavailable     = NewDomainError("GATEWAY_UNAVAILABLE", "Payment gateway temporarily unavailable")
	ErrSignatureInvalid       = NewDomainError("SIGNATURE_INVALID", "Webhook signature verification failed")
	ErrDuplicateEvent         = NewDomainError("DUPLICATE_EVENT", "Event has already been processed")
	ErrRefundNotAllowed       = NewDomainError("REFUND_NOT_ALLOWED", "Transaction is not refundable")
)
