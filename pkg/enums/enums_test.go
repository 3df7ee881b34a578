package enums

import "testing"

func TestParseBookingStatus(t *testing.T) {
	got, err := ParseBookingStatus("IN_PROGRESS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != BookingStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", got)
	}
	if _, err := ParseBookingStatus("in_progress"); err == nil {
		t.Fatal("expected lowercase status to be rejected")
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	cases := map[BookingStatus]bool{
		BookingStatusConfirmed:  false,
		BookingStatusInProgress: false,
		BookingStatusCompleted:  true,
		BookingStatusCancelled:  true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s: expected terminal=%v got %v", status, want, got)
		}
	}
}

func TestOTPTypeIsValid(t *testing.T) {
	if !OTPTypeAadhaarVerification.IsValid() {
		t.Fatal("expected aadhaar verification to be valid")
	}
	if OTPType("EMAIL_CHANGE").IsValid() {
		t.Fatal("unexpected otp type accepted")
	}
}

func TestParseNotificationType(t *testing.T) {
	if _, err := ParseNotificationType("REVIEW_RECEIVED"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseNotificationType("unknown"); err == nil {
		t.Fatal("expected invalid notification type error")
	}
}
