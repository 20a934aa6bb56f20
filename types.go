package meshauth

import "net/http"

// Outcome is the terminal classification of an authorization decision. Every
// call to [Engine.Authorize] resolves to exactly one of the six values below.
type Outcome uint8

const (
	// OutcomeAuthorizedUser is an exported constant or variable used by the authorization engine.
	OutcomeAuthorizedUser Outcome = iota
	// OutcomeAuthorizedGuest is an exported constant or variable used by the authorization engine.
	OutcomeAuthorizedGuest
	// OutcomeUnauthorizedUser is an exported constant or variable used by the authorization engine.
	OutcomeUnauthorizedUser
	// OutcomeUnauthorizedGuest is an exported constant or variable used by the authorization engine.
	OutcomeUnauthorizedGuest
	// OutcomeUnauthenticatedGuest is an exported constant or variable used by the authorization engine.
	OutcomeUnauthenticatedGuest
	// OutcomeUnexpectedError is an exported constant or variable used by the authorization engine.
	OutcomeUnexpectedError
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAuthorizedUser:
		return "AUTHORIZED_USER"
	case OutcomeAuthorizedGuest:
		return "AUTHORIZED_GUEST_USER"
	case OutcomeUnauthorizedUser:
		return "UNAUTHORIZED_USER"
	case OutcomeUnauthorizedGuest:
		return "UNAUTHORIZED_GUEST_USER"
	case OutcomeUnauthenticatedGuest:
		return "UNAUTHENTICATED_GUEST_USER"
	case OutcomeUnexpectedError:
		return "UNEXPECTED_ERROR"
	default:
		return "UNKNOWN"
	}
}

// StatusHint maps the outcome to the transport status the edge layer should
// emit: authorized 200, unauthorized 403, unauthenticated 401, unexpected 500.
func (o Outcome) StatusHint() int {
	switch o {
	case OutcomeAuthorizedUser, OutcomeAuthorizedGuest:
		return http.StatusOK
	case OutcomeUnauthorizedUser, OutcomeUnauthorizedGuest:
		return http.StatusForbidden
	case OutcomeUnauthenticatedGuest:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Request is the credential bundle and requested capability forwarded by the
// edge layer. Any subset of the three credentials may be present; Services
// and Destinations are index-aligned capability pairs.
type Request struct {
	AccessToken  string
	SessionID    string
	RefreshToken string

	Services     []string
	Destinations []string

	UserAgent  string
	ClientCity string
}

// Result is the decision returned to the edge layer. Credential fields carry
// whatever the caller should hold after the decision: echoed inputs when
// identity was confirmed in place, freshly rotated values after a refresh
// traversal, newly minted guest credentials on the guest path, and nothing at
// all on [OutcomeUnexpectedError]. ServiceToken is set only on authorized
// outcomes.
type Result struct {
	Outcome Outcome

	AccessToken  string
	RefreshToken string
	SessionID    string
	ServiceToken string
}

// StatusHint is shorthand for Result.Outcome.StatusHint().
func (r Result) StatusHint() int {
	return r.Outcome.StatusHint()
}

// Credentials is the bundle returned by the issuance operations
// ([Engine.IssueCredentials], [Engine.CreateGuest]). Guests never receive a
// RefreshToken.
type Credentials struct {
	UserID string
	Role   string

	AccessToken  string
	RefreshToken string
	SessionID    string
}
