// Package metrics defines and registers all custom Prometheus metrics for the
// identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics self-register with the default Prometheus registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "locked", "inactive", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts user registrations.
// Label:
//   - result: "created", "duplicate", "invalid", "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, labelled by result.",
	},
	[]string{"result"},
)

// ── OTP metrics ───────────────────────────────────────────────────────────────

// OtpIssuedTotal counts issued one-time passcodes.
// Label:
//   - type: "password_reset" or "email_verify"
var OtpIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_issued_total",
		Help:      "Total number of OTPs issued, by type.",
	},
	[]string{"type"},
)

// OtpVerifiedTotal counts OTP verification attempts.
// Label:
//   - result: "success" or "failure" (which check failed is deliberately
//     not exposed, mirroring the API's oracle-free error surface)
var OtpVerifiedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verified_total",
		Help:      "Total number of OTP verification attempts, labelled by result.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsCreatedTotal counts sessions opened by successful logins.
var SessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of sessions created.",
	},
)

// SessionsRevokedTotal counts explicit session invalidations.
// Label:
//   - reason: "logout" or "revoke_all"
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of sessions explicitly revoked, by reason.",
	},
	[]string{"reason"},
)

// ── Event pipeline metrics ────────────────────────────────────────────────────

// EventsDispatchedTotal counts domain events claimed for dispatch.
// Label:
//   - event: the event name (e.g. "user.registered")
var EventsDispatchedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dispatched_total",
		Help:      "Total number of domain events claimed for dispatch, by event name.",
	},
	[]string{"event"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// PermissionChecksTotal counts permission-gate decisions at the API edge.
// Label:
//   - result: "allowed" or "denied"
var PermissionChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_checks_total",
		Help:      "Total number of endpoint permission checks, labelled by decision.",
	},
	[]string{"result"},
)

// PermissionResolutionDuration measures a full effective-permission-set
// resolution (role load + permission load).
var PermissionResolutionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "permission_resolution_duration_seconds",
		Help:      "Duration of effective permission set resolution.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)
