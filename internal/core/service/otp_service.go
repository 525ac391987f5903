package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

const otpDigits = 6

// OtpService issues and verifies one-time passcodes.
type OtpService struct {
	otps ports.OtpRepository
	log  zerolog.Logger
}

func NewOtpService(otps ports.OtpRepository, log zerolog.Logger) *OtpService {
	return &OtpService{otps: otps, log: log}
}

// Issue generates a fresh 6-digit code for (email, type, org). Any prior OTP
// for the tuple still valid at issue time is superseded first, so at most one
// valid OTP is ever outstanding per tuple.
func (s *OtpService) Issue(ctx context.Context, email domain.Email, typ domain.OtpType, orgID string, ttl time.Duration) (*domain.Otp, error) {
	if _, err := domain.NewOtpType(string(typ)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	superseded, err := s.otps.SupersedeValid(ctx, email, typ, orgID, now)
	if err != nil {
		return nil, fmt.Errorf("supersede prior otp: %w", err)
	}

	code, err := generateOtpCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp code: %w", err)
	}

	otp := domain.NewOtp(email, typ, code, orgID, ttl)
	if err := s.otps.Save(ctx, otp); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("otp_id", otp.ID).
		Str("org_id", orgID).
		Str("type", string(typ)).
		Int64("superseded", superseded).
		Time("expires_at", otp.ExpiresAt).
		Msg("otp issued")

	return otp, nil
}

// Verify checks code against the outstanding OTP for (email, type, org).
// The code comparison is constant-time, and the used-flag flip goes through
// the repository's compare-and-swap so concurrent attempts yield exactly one
// success.
func (s *OtpService) Verify(ctx context.Context, email domain.Email, typ domain.OtpType, code, orgID string, now time.Time) error {
	otp, err := s.otps.FindByEmailAndType(ctx, email, typ, orgID)
	if err != nil {
		return err
	}

	if otp.Used {
		return domain.ErrOtpAlreadyUsed
	}
	if otp.IsExpired(now) {
		return domain.ErrOtpExpired
	}
	if !otp.Matches(code) {
		return domain.ErrOtpMismatch
	}

	// CAS on the used flag: a concurrent winner turns this into AlreadyUsed.
	if err := s.otps.MarkUsed(ctx, otp.ID, orgID); err != nil {
		return err
	}

	s.log.Info().
		Str("otp_id", otp.ID).
		Str("org_id", orgID).
		Str("type", string(typ)).
		Msg("otp verified")

	return nil
}

// DeleteExpired removes expired OTPs. Idempotent maintenance, not part of the
// verification hot path.
func (s *OtpService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.otps.DeleteExpired(ctx, time.Now().UTC())
}

// DeleteUsedOlderThan removes used OTPs older than age.
func (s *OtpService) DeleteUsedOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return s.otps.DeleteUsedBefore(ctx, time.Now().UTC().Add(-age))
}

// generateOtpCode returns a 6-digit numeric code from crypto/rand. Bytes
// of 250 and above are rejected so every digit is equally likely.
func generateOtpCode() (string, error) {
	code := make([]byte, otpDigits)
	buf := make([]byte, 1)
	for i := 0; i < otpDigits; {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		if buf[0] >= 250 {
			continue
		}
		code[i] = '0' + buf[0]%10
		i++
	}
	return string(code), nil
}
