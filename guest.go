package meshauth

import (
	"context"

	"github.com/google/uuid"
	"github.com/meshtrust/meshauth/role"
)

// CreateGuest mints a fresh ephemeral guest identity: a random guest user ID,
// a guest-role access token, and a backing session. Guests never receive a
// refresh token; an expired guest simply becomes a new guest.
//
// CreateGuest may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) CreateGuest(ctx context.Context) (Credentials, error) {
	if e == nil || e.tokens == nil {
		return Credentials{}, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	userID := e.config.Guest.IDPrefix + uuid.NewString()

	accessToken, err := e.tokens.CreateAccess(userID, role.Guest)
	if err != nil {
		return Credentials{}, err
	}

	sess, err := e.sessionStore.Save(ctx, accessToken, e.tokens.AccessTTL())
	if err != nil {
		return Credentials{}, err
	}

	e.metricInc(MetricGuestIssued)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventGuestIssued, true, userID, sess.SessionID, nil, nil)

	return Credentials{
		UserID:      userID,
		Role:        role.Guest,
		AccessToken: accessToken,
		SessionID:   sess.SessionID,
	}, nil
}
