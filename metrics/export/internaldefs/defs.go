package internaldefs

import (
	meshauth "github.com/meshtrust/meshauth"
)

// CounterDef defines a public type used by meshauth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   meshauth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by meshauth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   meshauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authorization engine.
var CounterDefs = []CounterDef{
	{ID: meshauth.MetricAuthorizedUser, Name: "meshauth_authorized_user_total", Help: "Requests decided AUTHORIZED_USER."},
	{ID: meshauth.MetricAuthorizedGuest, Name: "meshauth_authorized_guest_total", Help: "Requests decided AUTHORIZED_GUEST_USER."},
	{ID: meshauth.MetricUnauthorizedUser, Name: "meshauth_unauthorized_user_total", Help: "Requests decided UNAUTHORIZED_USER."},
	{ID: meshauth.MetricUnauthorizedGuest, Name: "meshauth_unauthorized_guest_total", Help: "Requests decided UNAUTHORIZED_GUEST_USER."},
	{ID: meshauth.MetricGuestIssued, Name: "meshauth_guest_issued_total", Help: "Ephemeral guest identities issued."},
	{ID: meshauth.MetricUnexpectedError, Name: "meshauth_unexpected_error_total", Help: "Requests decided UNEXPECTED_ERROR."},
	{ID: meshauth.MetricAccessValidated, Name: "meshauth_access_validated_total", Help: "Access token and session pairs validated successfully."},
	{ID: meshauth.MetricSessionMismatch, Name: "meshauth_session_mismatch_total", Help: "Session lookups whose stored token did not match the presented one."},
	{ID: meshauth.MetricRefreshRotated, Name: "meshauth_refresh_rotated_total", Help: "Refresh tokens rotated into fresh credential sets."},
	{ID: meshauth.MetricRefreshInvalid, Name: "meshauth_refresh_invalid_total", Help: "Refresh tokens rejected by signature or expiry checks."},
	{ID: meshauth.MetricFingerprintMismatch, Name: "meshauth_fingerprint_mismatch_total", Help: "Valid refresh tokens presented from an unrecognized device fingerprint."},
	{ID: meshauth.MetricSessionCreated, Name: "meshauth_session_created_total", Help: "Created sessions."},
	{ID: meshauth.MetricSessionRevoked, Name: "meshauth_session_revoked_total", Help: "Revoked sessions."},
	{ID: meshauth.MetricRefreshRevoked, Name: "meshauth_refresh_revoked_total", Help: "Revoked refresh records."},
	{ID: meshauth.MetricCredentialsIssued, Name: "meshauth_credentials_issued_total", Help: "Full credential sets issued to authenticated users."},
	{ID: meshauth.MetricCleanupDropped, Name: "meshauth_cleanup_dropped_total", Help: "Revocation tasks dropped due to dispatcher backpressure."},
}

// HistogramDefs is an exported constant or variable used by the authorization engine.
var HistogramDefs = []HistogramDef{
	{ID: meshauth.MetricAuthorizeLatency, Name: "meshauth_authorize_latency_seconds", Help: "Authorize latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the authorization engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramUpperBounds is an exported constant or variable used by the authorization engine.
//
// HistogramUpperBounds mirrors [HistogramBounds] as float64 values for
// exporters that build native histogram types.
var HistogramUpperBounds = []float64{
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
}

// HistogramBoundSuffix is an exported constant or variable used by the authorization engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// eight-bucket layout.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form the
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
