package verification

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidOrExpiredOTP    = errors.New("invalid or expired otp")
	ErrDuplicateAadhaar       = errors.New("aadhaar number already registered")
	ErrAadhaarAlreadyVerified = errors.New("a different aadhaar number is already verified")
	ErrAadhaarNotAttached     = errors.New("no aadhaar number attached")
)
