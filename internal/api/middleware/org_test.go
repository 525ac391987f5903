package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func resolveOrg(t *testing.T, host, header string, preset string) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Host = host
	if header != "" {
		req.Header.Set("X-Org-ID", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if preset != "" {
		c.Set("org_id", preset)
	}

	var got string
	mw := Org("default-org")
	handler := mw(func(c echo.Context) error {
		got, _ = c.Get("org_id").(string)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return got
}

func TestOrgMiddleware_HeaderWins(t *testing.T) {
	if got := resolveOrg(t, "acme.identity.example.com", "from-header", ""); got != "from-header" {
		t.Fatalf("expected header org, got %q", got)
	}
}

func TestOrgMiddleware_Subdomain(t *testing.T) {
	if got := resolveOrg(t, "acme.identity.example.com", "", ""); got != "acme" {
		t.Fatalf("expected subdomain org, got %q", got)
	}
	if got := resolveOrg(t, "acme.example.com:8080", "", ""); got != "acme" {
		t.Fatalf("expected subdomain org with port stripped, got %q", got)
	}
}

func TestOrgMiddleware_DefaultFallback(t *testing.T) {
	for _, host := range []string{"localhost:8080", "example.com"} {
		if got := resolveOrg(t, host, "", ""); got != "default-org" {
			t.Fatalf("host %q: expected default org, got %q", host, got)
		}
	}
}

func TestOrgMiddleware_NeverOverridesAuth(t *testing.T) {
	if got := resolveOrg(t, "acme.identity.example.com", "from-header", "from-token"); got != "from-token" {
		t.Fatalf("expected token org preserved, got %q", got)
	}
}
