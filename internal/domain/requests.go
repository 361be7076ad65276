package domain

type GenerateOTPRequest struct {
	Length int `json:"length" validate:"omitempty,min=1,max=12"`
}

type GenerateOTPResponse struct {
	Code string `json:"code"`
}

type SendOTPRequest struct {
	Phone   string `json:"phone" validate:"required,max=32"`
	Code    string `json:"code" validate:"required,numeric,max=12"`
	Purpose string `json:"purpose" validate:"max=64"`
}

type OrderStatusNotificationRequest struct {
	Phone   string            `json:"phone" validate:"required,max=32"`
	Status  string            `json:"status" validate:"required,max=64"`
	Context map[string]string `json:"context"`
}

type NormalizePhoneRequest struct {
	Phone string `json:"phone" validate:"required,max=64"`
}

type NormalizePhoneResponse struct {
	Phone string `json:"phone"`
}

type DialCodeResponse struct {
	Country  string `json:"country"`
	DialCode string `json:"dialCode"`
}

type TemplatePreviewRequest struct {
	Status  string            `json:"status" validate:"required,max=64"`
	Context map[string]string `json:"context"`
}

type TemplatePreviewResponse struct {
	Template string `json:"template"`
	Body     string `json:"body"`
}

type TemplatesResponse struct {
	Placeholders []string          `json:"placeholders"`
	Defaults     map[string]string `json:"defaults"`
	Effective    map[string]string `json:"effective"`
	Generic      string            `json:"generic"`
}

type EnqueueResponse struct {
	EventID string `json:"eventId"`
}

// AckResponse is the generic answer to password recovery requests. It does
// not reveal whether the phone belongs to an account or whether delivery worked.
type AckResponse struct {
	Message string `json:"message"`
}
