package domain

import (
	"errors"
	"fmt"
	"time"
)

type MessageKind string

const (
	KindOTP         MessageKind = "otp"
	KindOrderStatus MessageKind = "order_status"
)

// OTP purposes understood by the OTP wording switch.
const (
	PurposeRegistration   = "registration"
	PurposeForgotPassword = "forgot_password"
	PurposeChangePhone    = "change_phone"
)

// OutboundMessage is built once per send and not modified afterwards.
type OutboundMessage struct {
	ID               string
	DestinationPhone string
	Body             string
	Kind             MessageKind
	Context          map[string]string
}

type DeliveryResult struct {
	Succeeded    bool   `json:"sent"`
	ProviderUsed string `json:"provider,omitempty"`
	RawResponse  string `json:"-"`
	ErrorDetail  string `json:"error,omitempty"`
}

var (
	// ErrConfiguration marks an unknown or unset primary provider. It is never recovered by fallback.
	ErrConfiguration = errors.New("configuration error")
	ErrCredential    = errors.New("credential error")
	ErrTransport     = errors.New("transport error")
	ErrRejected      = errors.New("provider rejected message")
	ErrValidation    = errors.New("validation error")
	// ErrEmptyCode is the validation failure for an OTP send without a code.
	ErrEmptyCode = fmt.Errorf("%w: otp code is empty", ErrValidation)
)

// OrderStatusEvent is emitted by the shop when an order changes status.
type OrderStatusEvent struct {
	EventID             string    `json:"eventId,omitempty"`
	OrderID             string    `json:"orderId" validate:"required"`
	IncrementID         string    `json:"incrementId"`
	Status              string    `json:"status" validate:"required"`
	CustomerPhone       string    `json:"customerPhone,omitempty"`
	ShippingPhone       string    `json:"shippingPhone,omitempty"`
	BillingPhone        string    `json:"billingPhone,omitempty"`
	CustomerFirstName   string    `json:"customerFirstName,omitempty"`
	CustomerLastName    string    `json:"customerLastName,omitempty"`
	BillingFirstName    string    `json:"billingFirstName,omitempty"`
	BillingLastName     string    `json:"billingLastName,omitempty"`
	GrandTotal          float64   `json:"grandTotal"`
	Currency            string    `json:"currency,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	PaymentMethod       string    `json:"paymentMethod,omitempty"`
	ShippingDescription string    `json:"shippingDescription,omitempty"`
	ShippingMethod      string    `json:"shippingMethod,omitempty"`
	TrackingNumbers     []string  `json:"trackingNumbers,omitempty"`
}

// DisplayID is the customer-facing order number.
func (e OrderStatusEvent) DisplayID() string {
	if e.IncrementID != "" {
		return e.IncrementID
	}
	return e.OrderID
}
