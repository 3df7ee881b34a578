package controllers

import (
	"context"
	"net/http"

	"github.com/homefix/homeservices-backend/api/responses"
	"github.com/homefix/homeservices-backend/api/validators"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
)

type otpResender interface {
	ResendOTP(ctx context.Context, phone string, otpType enums.OTPType) error
}

type otpVerifier interface {
	Verify(ctx context.Context, phone, code string, otpType enums.OTPType) (bool, error)
}

type sendOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Type  string `json:"type" validate:"omitempty,oneof=PHONE_VERIFICATION AADHAAR_VERIFICATION"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"otp" validate:"required,len=6,numeric"`
	Type  string `json:"type" validate:"omitempty,oneof=PHONE_VERIFICATION AADHAAR_VERIFICATION"`
}

func otpTypeOrDefault(raw string) enums.OTPType {
	if raw == "" {
		return enums.OTPTypePhoneVerification
	}
	return enums.OTPType(raw)
}

// SendOTP issues a fresh code to a registered phone.
func SendOTP(svc otpResender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verification service unavailable"))
			return
		}

		var body sendOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ResendOTP(r.Context(), body.Phone, otpTypeOrDefault(body.Type)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"sent": true})
	}
}

// VerifyOTP consumes a code and reports whether it matched.
func VerifyOTP(svc otpVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "otp service unavailable"))
			return
		}

		var body verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := svc.Verify(r.Context(), body.Phone, body.Code, otpTypeOrDefault(body.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"verified": ok})
	}
}
