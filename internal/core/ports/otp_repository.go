package ports

import (
	"context"
	"time"

	"github.com/authcore/identity-system/internal/core/domain"
)

// OtpRepository defines OTP persistence, tenant-scoped throughout.
//
// "Valid" means unused, unsuperseded and unexpired (!used && now < expiresAt).
type OtpRepository interface {
	Save(ctx context.Context, otp *domain.Otp) error
	// FindByEmailAndType returns the most recently issued, non-superseded
	// OTP for the tuple regardless of its used/expired state.
	FindByEmailAndType(ctx context.Context, email domain.Email, typ domain.OtpType, orgID string) (*domain.Otp, error)
	// FindValidByEmailAndType returns the OTP for the tuple that is still
	// valid at now.
	FindValidByEmailAndType(ctx context.Context, email domain.Email, typ domain.OtpType, orgID string, now time.Time) (*domain.Otp, error)
	// MarkUsed flips the used flag with compare-and-swap semantics: of N
	// concurrent calls for the same OTP exactly one succeeds, the rest
	// return domain.ErrOtpAlreadyUsed.
	MarkUsed(ctx context.Context, id, orgID string) error
	// SupersedeValid invalidates every OTP for the tuple still valid at now
	// and returns how many were superseded.
	SupersedeValid(ctx context.Context, email domain.Email, typ domain.OtpType, orgID string, now time.Time) (int64, error)
	// DeleteExpired and DeleteUsedBefore are idempotent maintenance
	// operations; zero affected rows is not an error.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteUsedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
