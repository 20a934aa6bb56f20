package meshauth

import (
	"context"
	"strings"

	"github.com/meshtrust/meshauth/refresh"
)

// IssueCredentials mints the full credential set for an authenticated user:
// access token, refresh token, and session. The caller has already verified
// the user's identity by whatever primary means it uses; this engine only
// manages the credentials from that point on.
//
// The refresh record is keyed by the device fingerprint derived from
// userAgent and clientCity, so the same user on a second device holds an
// independent refresh record.
//
// IssueCredentials may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) IssueCredentials(ctx context.Context, userID, roleName, userAgent, clientCity string) (Credentials, error) {
	if e == nil || e.tokens == nil {
		return Credentials{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Credentials{}, ErrInvalidRequest
	}
	if !e.roles.Has(roleName) {
		return Credentials{}, ErrRoleUnknown
	}

	accessToken, err := e.tokens.CreateAccess(userID, roleName)
	if err != nil {
		return Credentials{}, err
	}
	refreshToken, err := e.tokens.CreateRefresh(userID, roleName)
	if err != nil {
		return Credentials{}, err
	}

	fp := refresh.NewFingerprint(userAgent, clientCity)
	if err := e.refreshStore.Upsert(ctx, userID, fp, refreshToken, e.tokens.RefreshTTL()); err != nil {
		return Credentials{}, err
	}

	sess, err := e.sessionStore.Save(ctx, accessToken, e.tokens.AccessTTL())
	if err != nil {
		// Roll back the refresh record so a half-issued credential set does
		// not survive the failure.
		e.revokeRefreshRecord(userID, fp)
		return Credentials{}, err
	}

	e.metricInc(MetricCredentialsIssued)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventCredentialsIssued, true, userID, sess.SessionID, nil, nil)

	return Credentials{
		UserID:       userID,
		Role:         roleName,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    sess.SessionID,
	}, nil
}

// Logout revokes a credential set: the session by ID, the reverse access
// lookup, and the refresh record for the presenting device. Missing pieces
// are ignored; Logout is idempotent and succeeds for already-expired
// credentials.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) Logout(ctx context.Context, req Request) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req.AccessToken = strings.TrimSpace(req.AccessToken)
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)

	var firstErr error

	if req.SessionID != "" {
		if err := e.sessionStore.Delete(ctx, req.SessionID); err != nil {
			firstErr = err
		} else {
			e.metricInc(MetricSessionRevoked)
		}
	}
	if req.AccessToken != "" {
		if err := e.sessionStore.DeleteByAccessToken(ctx, req.AccessToken); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if req.RefreshToken != "" {
		userID := e.tokens.UnverifiedSubject(req.RefreshToken)
		if userID != "" {
			fp := refresh.NewFingerprint(req.UserAgent, req.ClientCity)
			if err := e.refreshStore.Delete(ctx, userID, fp); err != nil {
				if firstErr == nil {
					firstErr = err
				}
			} else {
				e.metricInc(MetricRefreshRevoked)
			}
		}
	}

	e.emitAudit(ctx, auditEventLogout, firstErr == nil, "", req.SessionID, firstErr, nil)

	return firstErr
}
