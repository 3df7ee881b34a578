package enums

import "fmt"

// OTPType scopes a one-time code to the flow that consumes it.
type OTPType string

const (
	OTPTypePhoneVerification   OTPType = "PHONE_VERIFICATION"
	OTPTypeAadhaarVerification OTPType = "AADHAAR_VERIFICATION"
	OTPTypePasswordReset       OTPType = "PASSWORD_RESET"
)

var validOTPTypes = []OTPType{
	OTPTypePhoneVerification,
	OTPTypeAadhaarVerification,
	OTPTypePasswordReset,
}

// String implements fmt.Stringer.
func (o OTPType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OTPType.
func (o OTPType) IsValid() bool {
	for _, candidate := range validOTPTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOTPType converts raw input into a OTPType.
func ParseOTPType(value string) (OTPType, error) {
	for _, candidate := range validOTPTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid otp type %q", value)
}
