package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authcore/identity-system/internal/api/metrics"
	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	users    ports.UserService
	sessions ports.SessionService
}

func NewAuthHandler(users ports.UserService, sessions ports.SessionService) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

// Register creates a new user account in the resolved org.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Org-ID  header    string           false  "Tenant identifier"
// @Param        body      body      registerRequest  true   "User registration details"
// @Success      201       {object}  userResponse
// @Failure      400       {object}  errorResponse
// @Failure      409       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	orgID, err := ctxOrg(c)
	if err != nil {
		return err
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		OrgID:     orgID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateIdentity):
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		case errors.Is(err, domain.ErrInvalidEmail):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates a user and returns an access token plus session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Org-ID  header    string        false  "Tenant identifier"
// @Param        body      body      loginRequest  true   "Login credentials"
// @Success      200       {object}  loginResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	orgID, err := ctxOrg(c)
	if err != nil {
		return err
	}

	result, err := h.users.Login(c.Request().Context(), ports.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		OrgID:     orgID,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		case errors.Is(err, domain.ErrUserLocked):
			metrics.LoginsTotal.WithLabelValues("locked").Inc()
		case errors.Is(err, domain.ErrLoginNotAllowed):
			metrics.LoginsTotal.WithLabelValues("inactive").Inc()
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.SessionsCreatedTotal.Inc()

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken:  result.AccessToken,
		SessionToken: result.Session.Token,
		ExpiresAt:    result.Session.ExpiresAt,
		User:         toUserResponse(result.User),
	})
}

// Logout revokes the caller's session; with "all" set, every session of the
// caller goes away (password change, suspected compromise).
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  logoutRequest  true  "Session to revoke"
// @Success      204
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if req.All {
		if err := h.sessions.RevokeAllForUser(ctx, userID, orgID); err != nil {
			return err
		}
		metrics.SessionsRevokedTotal.WithLabelValues("revoke_all").Inc()
	} else {
		if err := h.sessions.Revoke(ctx, req.SessionToken, orgID); err != nil {
			return err
		}
		metrics.SessionsRevokedTotal.WithLabelValues("logout").Inc()
	}

	return c.NoContent(http.StatusNoContent)
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		OrgID:     u.OrgID,
		Email:     u.Email.String(),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Status:    string(u.Status),
		RoleIDs:   u.RoleIDs,
		LastLogin: u.LastLoginAt,
		CreatedAt: u.CreatedAt,
	}
}
