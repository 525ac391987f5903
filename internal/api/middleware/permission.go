package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authcore/identity-system/internal/api/metrics"
	"github.com/authcore/identity-system/internal/core/ports"
)

// RequirePermission gates a route on the caller's effective permission set.
// The caller's user is loaded fresh on every request; resolution itself is
// uncached, so role or permission changes take effect immediately.
func RequirePermission(users ports.UserRepository, access ports.AccessService, name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get("user_id").(string)
			orgID, _ := c.Get("org_id").(string)
			if userID == "" || orgID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			ctx := c.Request().Context()
			user, err := users.FindByID(ctx, userID, orgID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown identity")
			}

			ok, err := access.HasPermission(ctx, user, name)
			if err != nil {
				return err
			}
			if !ok {
				metrics.PermissionChecksTotal.WithLabelValues("denied").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			metrics.PermissionChecksTotal.WithLabelValues("allowed").Inc()

			return next(c)
		}
	}
}
