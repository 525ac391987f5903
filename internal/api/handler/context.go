package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// fast-fails before any service call: both values must be present, otherwise
// the route was wired without the middleware or the token is malformed.
func ctxIdentity(c echo.Context) (userID, orgID string, err error) {
	userID, _ = c.Get("user_id").(string)
	orgID, _ = c.Get("org_id").(string)
	if userID == "" || orgID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, orgID, nil
}

// ctxOrg extracts the tenant resolved by the Org middleware. Unauthenticated
// routes (register, login, OTP) only need the org.
func ctxOrg(c echo.Context) (string, error) {
	orgID, _ := c.Get("org_id").(string)
	if orgID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unable to resolve organization")
	}
	return orgID, nil
}
