package domain

import (
	"crypto/subtle"
	"time"
)

// OtpType is the purpose of a one-time passcode.
type OtpType string

const (
	OtpPasswordReset OtpType = "password_reset"
	OtpEmailVerify   OtpType = "email_verify"
)

// NewOtpType validates membership in the closed set.
func NewOtpType(value string) (OtpType, error) {
	switch OtpType(value) {
	case OtpPasswordReset, OtpEmailVerify:
		return OtpType(value), nil
	default:
		return "", ErrInvalidOtpType
	}
}

// Otp is a single-use 6-digit passcode bound to (email, type, org). Issuing a
// fresh OTP supersedes any prior valid one for the same tuple, so at most one
// valid OTP is outstanding per tuple at any instant.
type Otp struct {
	Entity     `bson:",inline"`
	Email      Email     `json:"email" bson:"email"`
	Type       OtpType   `json:"type" bson:"type"`
	Code       string    `json:"-" bson:"code"`
	ExpiresAt  time.Time `json:"expires_at" bson:"expires_at"`
	Used       bool      `json:"used" bson:"used"`
	Superseded bool      `json:"superseded" bson:"superseded"`
}

// NewOtp creates an OTP expiring at now + ttl.
func NewOtp(email Email, typ OtpType, code, orgID string, ttl time.Duration) *Otp {
	o := &Otp{
		Entity: NewEntity(orgID),
		Email:  email,
		Type:   typ,
		Code:   code,
	}
	o.ExpiresAt = o.CreatedAt.Add(ttl)
	return o
}

// Matches compares code against the stored one in constant time. The OTP
// guards credential recovery, so the comparison must not leak timing.
func (o *Otp) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(o.Code), []byte(code)) == 1
}

// IsExpired reports whether now is at or past the deadline.
func (o *Otp) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// IsValid reports whether the OTP can still be verified at now: unused,
// unsuperseded and unexpired.
func (o *Otp) IsValid(now time.Time) bool {
	return !o.Used && !o.Superseded && now.Before(o.ExpiresAt)
}

// MarkUsed flips the single-use flag. The atomicity of the flip with respect
// to concurrent verification attempts is a persistence-adapter contract; see
// ports.OtpRepository.MarkUsed.
func (o *Otp) MarkUsed() {
	o.Used = true
	o.Touch()
}

// Supersede invalidates the OTP because a newer one was issued for the same
// (email, type, org).
func (o *Otp) Supersede() {
	o.Superseded = true
	o.Touch()
}
