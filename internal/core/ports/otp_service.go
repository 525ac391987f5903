package ports

import (
	"context"
	"time"

	"github.com/authcore/identity-system/internal/core/domain"
)

// OtpService manages one-time passcode issuance and verification:
// ISSUED → {VERIFIED, EXPIRED, SUPERSEDED}.
type OtpService interface {
	// Issue generates a 6-digit code and invalidates any prior valid OTP
	// for the same (email, type, org), so at most one valid OTP is
	// outstanding per tuple.
	Issue(ctx context.Context, email domain.Email, typ domain.OtpType, orgID string, ttl time.Duration) (*domain.Otp, error)
	// Verify checks the supplied code and marks the OTP used on success.
	// Fails with domain.ErrOtpNotFound, ErrOtpExpired, ErrOtpAlreadyUsed or
	// ErrOtpMismatch; concurrent attempts against one OTP yield exactly one
	// success.
	Verify(ctx context.Context, email domain.Email, typ domain.OtpType, code, orgID string, now time.Time) error
	// Cleanup operations, idempotent and off the verification hot path.
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteUsedOlderThan(ctx context.Context, age time.Duration) (int64, error)
}
