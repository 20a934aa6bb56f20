package meshauth

import (
	"context"
	"strings"
	"time"

	"github.com/meshtrust/meshauth/refresh"
	"github.com/meshtrust/meshauth/role"
	"github.com/meshtrust/meshauth/session"
	"github.com/meshtrust/meshauth/token"
)

// Engine defines a public type used by meshauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	tokens       *token.Service
	roles        *role.Registry
	sessionStore *session.Store
	refreshStore *refresh.Store
	audit        *auditDispatcher
	cleanup      *cleanupDispatcher
	metrics      *Metrics
}

// Close drains the audit and cleanup dispatchers. Close is idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.cleanup != nil {
		e.cleanup.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// CleanupDropped reports how many revocation tasks were discarded because the
// dispatcher buffer was full.
func (e *Engine) CleanupDropped() uint64 {
	if e == nil || e.cleanup == nil {
		return 0
	}
	return e.cleanup.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authorize evaluates one inbound request and always produces a [Result]; it
// never returns an error and never panics. A request that carries a valid
// access token plus matching session is decided on the access path; otherwise
// the refresh path rotates valid refresh credentials, and a request with no
// usable credentials at all is downgraded to a fresh guest identity.
//
// Infrastructure failures surface as [OutcomeUnexpectedError] with no
// credentials attached. Invalid credentials never do: they degrade to the next
// weaker path so the caller cannot distinguish "expired", "forged", and
// "stolen on another device".
func (e *Engine) Authorize(ctx context.Context, req Request) (result Result) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = e.unexpected(ctx, "", nil)
		}
		if e != nil && e.metrics != nil {
			e.metrics.Observe(MetricAuthorizeLatency, time.Since(start))
		}
	}()

	if e == nil || e.tokens == nil {
		return Result{Outcome: OutcomeUnexpectedError}
	}

	req.AccessToken = strings.TrimSpace(req.AccessToken)
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)

	if req.AccessToken != "" && req.SessionID != "" {
		res, decided := e.authorizeAccess(ctx, req)
		if decided {
			return res
		}
	} else if req.AccessToken != "" || req.SessionID != "" {
		// A lone half is useless and gets revoked so it cannot linger.
		e.revokeCredentialHalf(ctx, req.AccessToken, req.SessionID)
	}

	return e.authorizeRefresh(ctx, req)
}

// authorizeAccess decides the request on the access path. The second return
// is false when the credentials were invalid and the refresh path should take
// over.
func (e *Engine) authorizeAccess(ctx context.Context, req Request) (Result, bool) {
	if !e.tokens.ValidateAccess(req.AccessToken) {
		e.revokeCredentialHalf(ctx, req.AccessToken, req.SessionID)
		return Result{}, false
	}

	ok, err := e.sessionStore.Validate(ctx, req.SessionID, req.AccessToken)
	if err != nil {
		return e.unexpected(ctx, req.SessionID, err), true
	}
	if !ok {
		e.metricInc(MetricSessionMismatch)
		e.emitAudit(ctx, auditEventSessionMismatch, false, "", req.SessionID, nil, nil)
		e.revokeCredentialHalf(ctx, req.AccessToken, req.SessionID)
		return Result{}, false
	}

	claims, err := e.tokens.ParseAccess(req.AccessToken)
	if err != nil {
		// Validated a moment ago; a parse failure here is not a credential
		// problem.
		return e.unexpected(ctx, req.SessionID, err), true
	}

	e.metricInc(MetricAccessValidated)
	e.emitAudit(ctx, auditEventAccessValidated, true, claims.Subject, req.SessionID, nil, nil)

	res, err := e.decide(ctx, claims.Subject, claims.Role, req, Credentials{
		UserID:       claims.Subject,
		Role:         claims.Role,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		SessionID:    req.SessionID,
	})
	if err != nil {
		return e.unexpected(ctx, req.SessionID, err), true
	}
	return res, true
}

// authorizeRefresh rotates valid refresh credentials or downgrades to guest
// issuance. Rotation happens whenever the refresh token and fingerprint check
// out, even when the capability check then denies the request.
func (e *Engine) authorizeRefresh(ctx context.Context, req Request) Result {
	if req.RefreshToken == "" {
		return e.issueGuest(ctx)
	}

	fp := refresh.NewFingerprint(req.UserAgent, req.ClientCity)

	if !e.tokens.ValidateRefresh(req.RefreshToken) {
		e.metricInc(MetricRefreshInvalid)
		if subject := e.tokens.UnverifiedSubject(req.RefreshToken); subject != "" {
			e.revokeRefreshRecord(subject, fp)
		}
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", nil, nil)
		return e.issueGuest(ctx)
	}

	claims, err := e.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		return e.unexpected(ctx, "", err)
	}

	ok, err := e.refreshStore.Matches(ctx, claims.Subject, fp, req.RefreshToken)
	if err != nil {
		return e.unexpected(ctx, "", err)
	}
	if !ok {
		// Valid signature but no record under this device fingerprint. The
		// caller only ever sees the guest downgrade; the detail stays
		// internal.
		e.metricInc(MetricFingerprintMismatch)
		e.emitAudit(ctx, auditEventFingerprintMismatch, false, claims.Subject, "", nil, func() map[string]string {
			return map[string]string{
				"fingerprint": fp.Hex(),
			}
		})
		e.revokeRefreshRecord(claims.Subject, fp)
		return e.issueGuest(ctx)
	}

	creds, err := e.rotate(ctx, claims.Subject, claims.Role, fp)
	if err != nil {
		return e.unexpected(ctx, "", err)
	}

	res, err := e.decide(ctx, claims.Subject, claims.Role, req, creds)
	if err != nil {
		return e.unexpected(ctx, "", err)
	}
	return res
}

// rotate mints a fresh access/refresh pair for the user, replaces the stored
// refresh hash for this fingerprint, and opens a new session.
func (e *Engine) rotate(ctx context.Context, userID, roleName string, fp refresh.Fingerprint) (Credentials, error) {
	accessToken, err := e.tokens.CreateAccess(userID, roleName)
	if err != nil {
		return Credentials{}, err
	}
	refreshToken, err := e.tokens.CreateRefresh(userID, roleName)
	if err != nil {
		return Credentials{}, err
	}

	if err := e.refreshStore.Upsert(ctx, userID, fp, refreshToken, e.tokens.RefreshTTL()); err != nil {
		return Credentials{}, err
	}

	sess, err := e.sessionStore.Save(ctx, accessToken, e.tokens.AccessTTL())
	if err != nil {
		return Credentials{}, err
	}

	e.metricInc(MetricRefreshRotated)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventRefreshRotated, true, userID, sess.SessionID, nil, nil)

	return Credentials{
		UserID:       userID,
		Role:         roleName,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    sess.SessionID,
	}, nil
}

// decide runs the capability check for an authenticated identity and shapes
// the final result around the credentials that identity now holds.
func (e *Engine) decide(ctx context.Context, userID, roleName string, req Request, creds Credentials) (Result, error) {
	guest := roleName == role.Guest

	if !e.roles.HasAccess(roleName, req.Services, req.Destinations) {
		if guest {
			e.metricInc(MetricUnauthorizedGuest)
		} else {
			e.metricInc(MetricUnauthorizedUser)
		}
		e.emitAudit(ctx, auditEventCapabilityDenied, false, userID, creds.SessionID, nil, func() map[string]string {
			return map[string]string{
				"role":     roleName,
				"services": strings.Join(req.Services, ","),
			}
		})

		outcome := OutcomeUnauthorizedUser
		if guest {
			outcome = OutcomeUnauthorizedGuest
		}
		return Result{
			Outcome:      outcome,
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			SessionID:    creds.SessionID,
		}, nil
	}

	serviceToken, err := e.tokens.CreateService(userID, roleName, req.Services, req.Destinations)
	if err != nil {
		return Result{}, err
	}

	if guest {
		e.metricInc(MetricAuthorizedGuest)
	} else {
		e.metricInc(MetricAuthorizedUser)
	}

	outcome := OutcomeAuthorizedUser
	if guest {
		outcome = OutcomeAuthorizedGuest
	}
	return Result{
		Outcome:      outcome,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		SessionID:    creds.SessionID,
		ServiceToken: serviceToken,
	}, nil
}

// issueGuest mints an ephemeral guest identity: a guest access token and a
// session, but never a refresh token. Guests re-enter through this path on
// every expiry.
func (e *Engine) issueGuest(ctx context.Context) Result {
	guest, err := e.CreateGuest(ctx)
	if err != nil {
		return e.unexpected(ctx, "", err)
	}

	return Result{
		Outcome:     OutcomeUnauthenticatedGuest,
		AccessToken: guest.AccessToken,
		SessionID:   guest.SessionID,
	}
}

// revokeCredentialHalf schedules best-effort revocation of whichever parts of
// an access/session pair were presented. The task runs detached from the
// request context.
func (e *Engine) revokeCredentialHalf(ctx context.Context, accessToken, sessionID string) {
	if e.cleanup == nil {
		return
	}

	if sessionID != "" {
		e.cleanup.Schedule("session revocation", func(ctx context.Context) error {
			if err := e.sessionStore.Delete(ctx, sessionID); err != nil {
				return err
			}
			e.metricInc(MetricSessionRevoked)
			return nil
		})
	}
	if accessToken != "" {
		e.cleanup.Schedule("access revocation", func(ctx context.Context) error {
			return e.sessionStore.DeleteByAccessToken(ctx, accessToken)
		})
	}

	e.emitAudit(ctx, auditEventCredentialHalf, true, "", sessionID, nil, nil)
}

// revokeRefreshRecord schedules best-effort deletion of the refresh record
// for a user/fingerprint pair.
func (e *Engine) revokeRefreshRecord(userID string, fp refresh.Fingerprint) {
	if e.cleanup == nil {
		return
	}

	e.cleanup.Schedule("refresh revocation", func(ctx context.Context) error {
		if err := e.refreshStore.Delete(ctx, userID, fp); err != nil {
			return err
		}
		e.metricInc(MetricRefreshRevoked)
		return nil
	})
}

func (e *Engine) unexpected(ctx context.Context, sessionID string, cause error) Result {
	e.metricInc(MetricUnexpectedError)
	e.emitAudit(ctx, auditEventUnexpectedError, false, "", sessionID, cause, nil)
	return Result{Outcome: OutcomeUnexpectedError}
}
