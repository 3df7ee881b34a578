package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/internal/users"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
)

type stubVerificationService struct {
	verifyPhoneErr error
	requested      string
	confirmUser    *users.UserDTO
	confirmErr     error
	resendType     enums.OTPType
	resendErr      error
}

func (s *stubVerificationService) VerifyPhone(ctx context.Context, phone, code string) error {
	return s.verifyPhoneErr
}

func (s *stubVerificationService) RequestAadhaarVerification(ctx context.Context, userID uuid.UUID, aadhaarNumber string) error {
	s.requested = aadhaarNumber
	return nil
}

func (s *stubVerificationService) ConfirmAadhaarVerification(ctx context.Context, userID uuid.UUID, phone, code string) (*users.UserDTO, error) {
	return s.confirmUser, s.confirmErr
}

func (s *stubVerificationService) ResendOTP(ctx context.Context, phone string, otpType enums.OTPType) error {
	s.resendType = otpType
	return s.resendErr
}

type stubOTPVerifier struct {
	ok bool
}

func (s stubOTPVerifier) Verify(ctx context.Context, phone, code string, otpType enums.OTPType) (bool, error) {
	return s.ok, nil
}

func TestVerifyPhoneInvalidCode(t *testing.T) {
	svc := &stubVerificationService{verifyPhoneErr: pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired otp")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify-phone", strings.NewReader(`{"phone":"+919876543210","otp":"123456"}`))
	resp := httptest.NewRecorder()
	VerifyPhone(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyPhoneRejectsMalformedCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify-phone", strings.NewReader(`{"phone":"+919876543210","otp":"12ab"}`))
	resp := httptest.NewRecorder()
	VerifyPhone(&stubVerificationService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRequestAadhaarVerification(t *testing.T) {
	svc := &stubVerificationService{}
	resp := httptest.NewRecorder()
	RequestAadhaarVerification(svc, testLogger())(resp, authedRequest(http.MethodPost, "/", `{"aadhaarNumber":"123412341234"}`, uuid.New()))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
	if svc.requested != "123412341234" {
		t.Fatalf("unexpected number %q", svc.requested)
	}

	resp = httptest.NewRecorder()
	RequestAadhaarVerification(svc, testLogger())(resp, authedRequest(http.MethodPost, "/", `{"aadhaarNumber":"1234"}`, uuid.New()))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short number got %d", resp.Code)
	}
}

func TestConfirmAadhaarReturnsUser(t *testing.T) {
	userID := uuid.New()
	svc := &stubVerificationService{confirmUser: &users.UserDTO{ID: userID, AadhaarVerified: true}}
	resp := httptest.NewRecorder()
	ConfirmAadhaarVerification(svc, testLogger())(resp, authedRequest(http.MethodPost, "/", `{"phone":"+919876543210","otp":"654321"}`, userID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			User users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !envelope.Data.User.AadhaarVerified {
		t.Fatal("expected verified user in response")
	}
}

func TestSendOTPDefaultsToPhoneVerification(t *testing.T) {
	svc := &stubVerificationService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/send", strings.NewReader(`{"phone":"+919876543210"}`))
	resp := httptest.NewRecorder()
	SendOTP(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.resendType != enums.OTPTypePhoneVerification {
		t.Fatalf("unexpected otp type %s", svc.resendType)
	}
}

func TestSendOTPRejectsUnknownType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/send", strings.NewReader(`{"phone":"+919876543210","type":"PASSWORD_RESET"}`))
	resp := httptest.NewRecorder()
	SendOTP(&stubVerificationService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyOTPReportsResult(t *testing.T) {
	for _, ok := range []bool{true, false} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/verify", strings.NewReader(`{"phone":"+919876543210","otp":"111111"}`))
		resp := httptest.NewRecorder()
		VerifyOTP(stubOTPVerifier{ok: ok}, testLogger())(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
		var envelope struct {
			Data map[string]bool `json:"data"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if envelope.Data["verified"] != ok {
			t.Fatalf("expected verified=%v got %v", ok, envelope.Data["verified"])
		}
	}
}
