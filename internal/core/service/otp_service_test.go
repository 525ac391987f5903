package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/authcore/identity-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

// stubOtpRepo mirrors the Mongo adapter's compare-and-swap on the used flag:
// MarkUsed only succeeds while used is still false, under a single lock.
type stubOtpRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Otp
}

func newStubOtpRepo() *stubOtpRepo {
	return &stubOtpRepo{byID: make(map[string]*domain.Otp)}
}

func (r *stubOtpRepo) Save(_ context.Context, otp *domain.Otp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *otp
	r.byID[otp.ID] = &clone
	return nil
}

func (r *stubOtpRepo) latest(email domain.Email, typ domain.OtpType, orgID string, filter func(*domain.Otp) bool) *domain.Otp {
	var latest *domain.Otp
	for _, o := range r.byID {
		if o.Email != email || o.Type != typ || o.OrgID != orgID || o.Superseded {
			continue
		}
		if filter != nil && !filter(o) {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	return latest
}

func (r *stubOtpRepo) FindByEmailAndType(_ context.Context, email domain.Email, typ domain.OtpType, orgID string) (*domain.Otp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.latest(email, typ, orgID, nil)
	if o == nil {
		return nil, domain.ErrOtpNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *stubOtpRepo) FindValidByEmailAndType(_ context.Context, email domain.Email, typ domain.OtpType, orgID string, now time.Time) (*domain.Otp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.latest(email, typ, orgID, func(o *domain.Otp) bool { return o.IsValid(now) })
	if o == nil {
		return nil, domain.ErrOtpNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *stubOtpRepo) MarkUsed(_ context.Context, id, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok || o.OrgID != orgID {
		return domain.ErrOtpNotFound
	}
	if o.Used {
		return domain.ErrOtpAlreadyUsed
	}
	o.Used = true
	return nil
}

func (r *stubOtpRepo) SupersedeValid(_ context.Context, email domain.Email, typ domain.OtpType, orgID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.byID {
		if o.Email == email && o.Type == typ && o.OrgID == orgID && o.IsValid(now) {
			o.Superseded = true
			n++
		}
	}
	return n, nil
}

func (r *stubOtpRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, o := range r.byID {
		if o.IsExpired(now) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *stubOtpRepo) DeleteUsedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, o := range r.byID {
		if o.Used && o.UpdatedAt.Before(cutoff) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func testEmail(t *testing.T) domain.Email {
	t.Helper()
	email, err := domain.NewEmail("alice@acme.io")
	if err != nil {
		t.Fatalf("email: %v", err)
	}
	return email
}

func TestOtpService_IssueAndVerify(t *testing.T) {
	repo := newStubOtpRepo()
	svc := NewOtpService(repo, zerolog.Nop())
	ctx := context.Background()
	email := testEmail(t)

	otp, err := svc.Issue(ctx, email, domain.OtpPasswordReset, "org_1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(otp.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", otp.Code)
	}
	for _, c := range otp.Code {
		if c < '0' || c > '9' {
			t.Fatalf("code must be numeric, got %q", otp.Code)
		}
	}

	now := time.Now().UTC()
	if err := svc.Verify(ctx, email, domain.OtpPasswordReset, otp.Code, "org_1", now); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Single use: the same code is dead after one success.
	err = svc.Verify(ctx, email, domain.OtpPasswordReset, otp.Code, "org_1", now)
	if !errors.Is(err, domain.ErrOtpAlreadyUsed) {
		t.Fatalf("expected ErrOtpAlreadyUsed, got %v", err)
	}
}

func TestOtpService_Verify_WrongCode(t *testing.T) {
	repo := newStubOtpRepo()
	svc := NewOtpService(repo, zerolog.Nop())
	ctx := context.Background()
	email := testEmail(t)

	otp, err := svc.Issue(ctx, email, domain.OtpEmailVerify, "org_1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	wrong := "000000"
	if wrong == otp.Code {
		wrong = "000001"
	}

	now := time.Now().UTC()
	if err := svc.Verify(ctx, email, domain.OtpEmailVerify, wrong, "org_1", now); !errors.Is(err, domain.ErrOtpMismatch) {
		t.Fatalf("expected ErrOtpMismatch, got %v", err)
	}

	// A mismatch must not burn the OTP.
	if err := svc.Verify(ctx, email, domain.OtpEmailVerify, otp.Code, "org_1", now); err != nil {
		t.Fatalf("correct code must still verify: %v", err)
	}
}

func TestOtpService_Verify_Expired(t *testing.T) {
	repo := newStubOtpRepo()
	svc := NewOtpService(repo, zerolog.Nop())
	ctx := context.Background()
	email := testEmail(t)

	otp, err := svc.Issue(ctx, email, domain.OtpPasswordReset, "org_1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	late := otp.ExpiresAt.Add(time.Second)
	if err := svc.Verify(ctx, email, domain.OtpPasswordReset, otp.Code, "org_1", late); !errors.Is(err, domain.ErrOtpExpired) {
		t.Fatalf("expected ErrOtpExpired, got %v", err)
	}
}

func TestOtpService_Verify_Unknown(t *testing.T) {
	svc := NewOtpService(newStubOtpRepo(), zerolog.Nop())
	email := testEmail(t)

	err := svc.Verify(context.Background(), email, domain.OtpPasswordReset, "123456", "org_1", time.Now().UTC())
	if !errors.Is(err, domain.ErrOtpNotFound) {
		t.Fatalf("expected ErrOtpNotFound, got %v", err)
	}
}

func TestOtpService_IssueSupersedesPrior(t *testing.T) {
	repo := newStubOtpRepo()
	svc := NewOtpService(repo, zerolog.Nop())
	ctx := context.Background()
	email := testEmail(t)

	first, err := svc.Issue(ctx, email, domain.OtpPasswordReset, "org_1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := svc.Issue(ctx, email, domain.OtpPasswordReset, "org_1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now := time.Now().UTC()

	// The first OTP is superseded and no longer reachable for verification;
	// only the second counts.
	if err := svc.Verify(ctx, email, domain.OtpPasswordReset, first.Code, "org_1", now); err == nil && first.Code != second.Code {
		t.Fatalf("superseded code must not verify")
	}
	if err := svc.Verify(ctx, email, domain.OtpPasswordReset, second.Code, "org_1", now); err != nil {
		t.Fatalf("latest code must verify: %v", err)
	}
}

func TestOtpService_IssueIsTypeAndOrgScoped(t *testing.T) {
	repo := newStubOtpRepo()
	svc := NewOtpService(repo, zerolog.Nop())
	ctx := context.Background()
	email := testEmail(t)

	reset, err := svc.Issue(ctx, email, domain.OtpPasswordReset, "org_1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	verify, err := svc.Issue(ctx, email, domain.OtpEmailVerify, "org_1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Different types never supersede one another.
	now := time.Now().UTC()
	if err := svc.Verify(ctx, email, domain.OtpPasswordReset, reset.Code, "org_1", now); err != nil {
		t.Fatalf("password_reset code must verify: %v", err)
	}
	if err := svc.Verify(ctx, email, domain.OtpEmailVerify, verify.Code, "org_1", now); err != nil {
		t.Fatalf("email_verify code must verify: %v", err)
	}

	// Codes never cross org boundaries.
	other, err := svc.Issue(ctx, email, domain.OtpPasswordReset, "org_2", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.Verify(ctx, email, domain.OtpPasswordReset, other.Code, "org_1", now); err == nil && other.Code != reset.Code {
		t.Fatalf("another org's code must not verify")
	}
}

func TestOtpService_ConcurrentVerify_SingleSuccess(t *testing.T) {
	repo := newStubOtpRepo()
	svc := NewOtpService(repo, zerolog.Nop())
	ctx := context.Background()
	email := testEmail(t)

	otp, err := svc.Issue(ctx, email, domain.OtpPasswordReset, "org_1", 10*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const attempts = 16
	now := time.Now().UTC()
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Verify(ctx, email, domain.OtpPasswordReset, otp.Code, "org_1", now)
		}(i)
	}
	wg.Wait()

	var successes int
	for i, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrOtpAlreadyUsed):
			// losers of the CAS race
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
}

func TestOtpService_Cleanup(t *testing.T) {
	repo := newStubOtpRepo()
	svc := NewOtpService(repo, zerolog.Nop())
	ctx := context.Background()
	email := testEmail(t)

	expired := domain.NewOtp(email, domain.OtpPasswordReset, "111111", "org_1", -time.Minute)
	if err := repo.Save(ctx, expired); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Issue(ctx, email, domain.OtpEmailVerify, "org_1", 10*time.Minute); err != nil {
		t.Fatalf("issue: %v", err)
	}

	n, err := svc.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired OTP removed, got %d", n)
	}

	// Second pass is a no-op, not an error.
	if n, err := svc.DeleteExpired(ctx); err != nil || n != 0 {
		t.Fatalf("second sweep must be a no-op, got %d/%v", n, err)
	}
}

// Exercises the rejection-sampling generator: nothing but digits may appear,
// and over enough codes every digit must show up.
func TestGenerateOtpCode_UniformDigits(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 200; i++ {
		code, err := generateOtpCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != otpDigits {
			t.Fatalf("expected %d digits, got %q", otpDigits, code)
		}
		for j := 0; j < len(code); j++ {
			if code[j] < '0' || code[j] > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
			seen[code[j]] = true
		}
	}
	if len(seen) != 10 {
		t.Fatalf("expected all ten digits across 200 codes, saw %d", len(seen))
	}
}
