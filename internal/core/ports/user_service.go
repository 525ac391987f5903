package ports

import (
	"context"

	"github.com/authcore/identity-system/internal/core/domain"
)

// RegisterInput carries the fields needed to register a user.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	OrgID     string
}

// LoginInput carries credential-login parameters.
type LoginInput struct {
	Email     string
	Password  string
	OrgID     string
	IPAddress string
	UserAgent string
}

// LoginResult is a successful login: a signed access token plus the
// server-side session backing it.
type LoginResult struct {
	AccessToken string
	Session     *domain.Session
	User        *domain.User
}

// UserService manages the user lifecycle.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Lock(ctx context.Context, userID, orgID string) error
	Unlock(ctx context.Context, userID, orgID string) error
	ChangeStatus(ctx context.Context, userID, orgID string, status domain.UserStatus) error
}
