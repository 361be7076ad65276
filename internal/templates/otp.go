package templates

import (
	"fmt"

	"waphone/internal/domain"
)

// OTPMessage returns the one-time code wording for purpose. Unknown purposes get the generic wording.
func OTPMessage(code, purpose string, expiryMinutes int) string {
	var format string
	switch purpose {
	case domain.PurposeRegistration:
		format = "Your registration OTP code is: %s. This code will expire in %d minutes."
	case domain.PurposeForgotPassword:
		format = "Your password reset OTP code is: %s. This code will expire in %d minutes."
	case domain.PurposeChangePhone:
		format = "Your phone number change OTP code is: %s. This code will expire in %d minutes."
	default:
		format = "Your OTP code is: %s. This code will expire in %d minutes."
	}
	return fmt.Sprintf(format, code, expiryMinutes)
}
