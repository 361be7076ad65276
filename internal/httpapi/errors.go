package httpapi

const (
	ErrInvalidJSON         = "invalid json"
	ErrValidation          = "validation failed"
	ErrInvalidPhone        = "invalid phone number"
	ErrProviderNotSet      = "provider not configured"
	ErrInvalidCode         = "invalid otp code"
	ErrDependency          = "dependency error"
	ErrQueueUnavailable    = "order event queue unavailable"
	ErrDeliveryLogDisabled = "delivery log unavailable"
	ErrInvalidLimit        = "invalid limit"
)

// Generic password recovery acknowledgement.
const recoveryAck = "If there is an account associated with this phone number you will receive a WhatsApp message with a verification code."
