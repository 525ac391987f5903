package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewOtpType(t *testing.T) {
	for _, valid := range []string{"password_reset", "email_verify"} {
		if _, err := NewOtpType(valid); err != nil {
			t.Fatalf("type %q: unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "sms", "PASSWORD_RESET"} {
		if _, err := NewOtpType(invalid); !errors.Is(err, ErrInvalidOtpType) {
			t.Fatalf("type %q: expected ErrInvalidOtpType, got %v", invalid, err)
		}
	}
}

func TestOtp_Matches(t *testing.T) {
	otp := NewOtp(mustEmail(t, "alice@acme.io"), OtpPasswordReset, "123456", "org_1", 10*time.Minute)

	if !otp.Matches("123456") {
		t.Fatalf("exact code must match")
	}
	for _, wrong := range []string{"123457", "12345", "1234567", ""} {
		if otp.Matches(wrong) {
			t.Fatalf("code %q must not match", wrong)
		}
	}
}

func TestOtp_ExpiryBoundary(t *testing.T) {
	otp := NewOtp(mustEmail(t, "alice@acme.io"), OtpEmailVerify, "123456", "org_1", 10*time.Minute)

	if otp.IsExpired(otp.CreatedAt) {
		t.Fatalf("fresh OTP must not be expired")
	}
	if !otp.IsExpired(otp.ExpiresAt) {
		t.Fatalf("OTP must be expired exactly at the deadline")
	}
	if otp.IsValid(otp.ExpiresAt) {
		t.Fatalf("OTP must be invalid at the deadline")
	}
}

func TestOtp_ValidityFlags(t *testing.T) {
	now := time.Now().UTC()

	otp := NewOtp(mustEmail(t, "alice@acme.io"), OtpPasswordReset, "123456", "org_1", 10*time.Minute)
	if !otp.IsValid(now) {
		t.Fatalf("fresh OTP must be valid")
	}

	otp.MarkUsed()
	if otp.IsValid(now) {
		t.Fatalf("used OTP must be invalid")
	}

	other := NewOtp(mustEmail(t, "alice@acme.io"), OtpPasswordReset, "654321", "org_1", 10*time.Minute)
	other.Supersede()
	if other.IsValid(now) {
		t.Fatalf("superseded OTP must be invalid")
	}
}
