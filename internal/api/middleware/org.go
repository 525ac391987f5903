package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// Org resolves the tenant for unauthenticated routes (register, login, OTP).
// Resolution order:
//
//  1. X-Org-ID header, when present.
//  2. Host subdomain ("acme.identity.example.com" → "acme").
//  3. The configured default org.
//
// Authenticated routes take the org from the token instead; this middleware
// never overrides a value already set by Auth.
func Org(defaultOrg string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Get("org_id") != nil {
				return next(c)
			}

			org := c.Request().Header.Get("X-Org-ID")
			if org == "" {
				org = subdomain(c.Request().Host)
			}
			if org == "" {
				org = defaultOrg
			}
			c.Set("org_id", org)

			return next(c)
		}
	}
}

// subdomain extracts the leftmost label from a host with at least three
// labels. "localhost:8080" and bare domains yield "".
func subdomain(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[0]
}
