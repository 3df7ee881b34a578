package security_test

import (
	"strconv"
	"testing"

	"github.com/homefix/homeservices-backend/pkg/security"
)

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := security.GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}
