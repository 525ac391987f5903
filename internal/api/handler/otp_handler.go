package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/authcore/identity-system/internal/api/metrics"
	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

// OtpHandler handles one-time passcode issuance and verification.
type OtpHandler struct {
	otps   ports.OtpService
	otpTTL time.Duration
}

func NewOtpHandler(otps ports.OtpService, otpTTL time.Duration) *OtpHandler {
	return &OtpHandler{otps: otps, otpTTL: otpTTL}
}

// Issue handles POST /otp/issue. The code itself never appears in the
// response; delivery happens out of band (mail, SMS). Issuing supersedes any
// still-valid OTP for the same email and type.
//
// @Summary      Issue a one-time passcode
// @Tags         otp
// @Accept       json
// @Param        X-Org-ID  header  string           false  "Tenant identifier"
// @Param        body      body    issueOtpRequest  true   "Target email and OTP type"
// @Success      202
// @Failure      400  {object}  errorResponse
// @Router       /otp/issue [post]
func (h *OtpHandler) Issue(c echo.Context) error {
	var req issueOtpRequest
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

	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return err
	}
	typ, err := domain.NewOtpType(req.Type)
	if err != nil {
		return err
	}

	if _, err := h.otps.Issue(c.Request().Context(), email, typ, orgID, h.otpTTL); err != nil {
		return err
	}
	metrics.OtpIssuedTotal.WithLabelValues(string(typ)).Inc()

	// 202: the OTP exists but reaches the caller through another channel.
	return c.NoContent(http.StatusAccepted)
}

// Verify handles POST /otp/verify. All failure modes collapse into the same
// 401 at the edge so the endpoint cannot be used as an oracle.
//
// @Summary      Verify a one-time passcode
// @Tags         otp
// @Accept       json
// @Param        X-Org-ID  header  string            false  "Tenant identifier"
// @Param        body      body    verifyOtpRequest  true   "Email, type and code"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /otp/verify [post]
func (h *OtpHandler) Verify(c echo.Context) error {
	var req verifyOtpRequest
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

	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return err
	}
	typ, err := domain.NewOtpType(req.Type)
	if err != nil {
		return err
	}

	if err := h.otps.Verify(c.Request().Context(), email, typ, req.Code, orgID, time.Now().UTC()); err != nil {
		metrics.OtpVerifiedTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.OtpVerifiedTotal.WithLabelValues("success").Inc()

	return c.NoContent(http.StatusNoContent)
}
