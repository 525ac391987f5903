package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Username  string `json:"username"   validate:"required,min=3"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Password  string `json:"password"   validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type logoutRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
	All          bool   `json:"all"`
}

type userResponse struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"org_id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Status    string     `json:"status"`
	RoleIDs   []string   `json:"role_ids,omitempty"`
	LastLogin *time.Time `json:"last_login_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type loginResponse struct {
	AccessToken  string       `json:"access_token"`
	SessionToken string       `json:"session_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         userResponse `json:"user"`
}

// --- Roles & permissions ---

type createRoleRequest struct {
	Name        string `json:"name"        validate:"required,min=2"`
	Description string `json:"description"`
}

type updateRoleRequest struct {
	Name        string `json:"name"        validate:"required,min=2"`
	Description string `json:"description"`
}

type setRoleActiveRequest struct {
	Active bool `json:"active"`
}

type setRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" validate:"required"`
}

type assignRoleRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type roleResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Active        bool     `json:"active"`
	PermissionIDs []string `json:"permission_ids,omitempty"`
}

type permissionSetResponse struct {
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// --- Sessions ---

type sessionResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// --- OTP ---

type issueOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Type  string `json:"type"  validate:"required,oneof=password_reset email_verify"`
}

type verifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Type  string `json:"type"  validate:"required,oneof=password_reset email_verify"`
	Code  string `json:"code"  validate:"required,len=6"`
}
