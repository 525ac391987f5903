package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

// UserService implements registration and credential login.
type UserService struct {
	users           ports.UserRepository
	sessions        ports.SessionService
	events          ports.EventDispatcher
	jwtSecret       string
	tokenTTL        time.Duration
	sessionTTL      time.Duration
	maxFailedLogins int
	log             zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	sessions ports.SessionService,
	events ports.EventDispatcher,
	jwtSecret string,
	tokenTTL, sessionTTL time.Duration,
	maxFailedLogins int,
	log zerolog.Logger,
) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if maxFailedLogins <= 0 {
		maxFailedLogins = domain.DefaultMaxFailedLogins
	}
	return &UserService{
		users:           users,
		sessions:        sessions,
		events:          events,
		jwtSecret:       jwtSecret,
		tokenTTL:        tokenTTL,
		sessionTTL:      sessionTTL,
		maxFailedLogins: maxFailedLogins,
		log:             log,
	}
}

// Register creates a user in the given org. Email/username uniqueness is
// enforced by the repository; a violation surfaces as ErrDuplicateIdentity.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email, err := domain.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Username == "" || in.Password == "" || in.OrgID == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.NewUser(email, in.Username, in.FirstName, in.LastName, in.OrgID)
	user.PasswordHash = string(hash)

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.publish(user)

	s.log.Info().
		Str("user_id", user.ID).
		Str("org_id", user.OrgID).
		Str("username", user.Username).
		Msg("user registered")

	return user, nil
}

// Login authenticates by (email, org) and password. On success it records the
// login, opens a session and mints an access token. Wrong passwords count
// toward the lock threshold.
func (s *UserService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	email, err := domain.NewEmail(in.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmailInOrg(ctx, email, in.OrgID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Status.CanLogin() {
		if user.Status == domain.StatusLocked {
			return nil, domain.ErrUserLocked
		}
		return nil, domain.ErrLoginNotAllowed
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		count := user.RecordFailedLogin(s.maxFailedLogins)
		if err := s.users.Save(ctx, user); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to persist failed-login counter")
		}
		s.log.Info().
			Str("user_id", user.ID).
			Str("org_id", user.OrgID).
			Int("failed_logins", count).
			Msg("login rejected: bad password")
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.RecordLogin(now, in.IPAddress, in.UserAgent)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.publish(user)

	session, err := s.sessions.Create(ctx, user.ID, user.OrgID, s.sessionTTL, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &ports.LoginResult{AccessToken: token, Session: session, User: user}, nil
}

// Lock force-locks the account.
func (s *UserService) Lock(ctx context.Context, userID, orgID string) error {
	user, err := s.users.FindByID(ctx, userID, orgID)
	if err != nil {
		return err
	}
	user.Lock()
	return s.users.Save(ctx, user)
}

// Unlock restores a locked account and clears the failed-login counter.
func (s *UserService) Unlock(ctx context.Context, userID, orgID string) error {
	user, err := s.users.FindByID(ctx, userID, orgID)
	if err != nil {
		return err
	}
	user.Unlock()
	return s.users.Save(ctx, user)
}

// ChangeStatus sets the account status after validating the value.
func (s *UserService) ChangeStatus(ctx context.Context, userID, orgID string, status domain.UserStatus) error {
	validated, err := domain.NewUserStatus(string(status))
	if err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, userID, orgID)
	if err != nil {
		return err
	}
	user.ChangeStatus(validated)
	return s.users.Save(ctx, user)
}

func (s *UserService) publish(user *domain.User) {
	if s.events != nil {
		s.events.Enqueue(user.Events()...)
	}
	user.ClearEvents()
}

func (s *UserService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"org":   user.OrgID,
		"email": user.Email.String(),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
