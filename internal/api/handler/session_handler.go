package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/authcore/identity-system/internal/api/metrics"
	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

// SessionHandler exposes the caller's own sessions.
type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List handles GET /v1/sessions — the caller's sessions active right now.
//
// @Summary      List my active sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/sessions [get]
func (h *SessionHandler) List(c echo.Context) error {
	userID, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	sessions, err := h.sessions.FindActive(c.Request().Context(), userID, orgID, time.Now().UTC())
	if err != nil {
		return err
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}

// Revoke handles DELETE /v1/sessions/:token — kill one session.
//
// @Summary      Revoke a session
// @Tags         sessions
// @Security     BearerAuth
// @Param        token  path  string  true  "Session token"
// @Success      204
// @Failure      404    {object}  errorResponse
// @Router       /v1/sessions/{token} [delete]
func (h *SessionHandler) Revoke(c echo.Context) error {
	_, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Revoke(c.Request().Context(), c.Param("token"), orgID); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("logout").Inc()
	return c.NoContent(http.StatusNoContent)
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
	}
}
