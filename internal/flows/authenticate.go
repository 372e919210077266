package flows

import (
	"context"
	"errors"
	"time"

	"github.com/seedkit/seedauth/credential"
	"github.com/seedkit/seedauth/jwt"
	"github.com/seedkit/seedauth/permission"
)

// Route is the access policy a handler declares.
type Route struct {
	Required  bool
	TokenType jwt.TokenType
	Roles     permission.Requirement
	Abilities permission.Requirement
}

// ExpectedType returns the token type the route accepts, defaulting to access.
func (r Route) ExpectedType() jwt.TokenType {
	if r.TokenType == "" {
		return jwt.TypeAccess
	}
	return r.TokenType
}

// HasRequirements reports whether the route declares role or ability requirements.
func (r Route) HasRequirements() bool {
	return !r.Roles.Empty() || !r.Abilities.Empty()
}

// Outcome is the terminal state of RunAuthenticate.
type Outcome int

const (
	// OutcomeAnonymous passes a request without credential to an optional route.
	OutcomeAnonymous Outcome = iota
	// OutcomeAuthorized carries the decoded token and identity.
	OutcomeAuthorized
	// OutcomeDenied is a local authorization decision.
	OutcomeDenied
	// OutcomeFailed is a dependency failure; it never means "not authenticated".
	OutcomeFailed
)

// AuthFailureKind classifies denials and failures for root-level mapping.
type AuthFailureKind int

// Denial kinds come with OutcomeDenied; AuthFailureSessionStore and
// AuthFailureDirectory come with OutcomeFailed.
const (
	AuthFailureNone AuthFailureKind = iota
	// AuthFailureCredentialRequired: a required route got no credential.
	AuthFailureCredentialRequired
	// AuthFailureHeaderMalformed: the Authorization header is not two segments.
	AuthFailureHeaderMalformed
	// AuthFailureSchemeInvalid: the Authorization scheme is not Bearer.
	AuthFailureSchemeInvalid
	// AuthFailureTokenInvalid: the credential is empty or failed to decode.
	AuthFailureTokenInvalid
	// AuthFailureTokenTypeMismatch: the token type differs from the route's.
	AuthFailureTokenTypeMismatch
	// AuthFailureTokenRevoked: the token is no longer the subject's active one.
	AuthFailureTokenRevoked
	// AuthFailureIdentityNotFound: the directory has no identity for the subject.
	AuthFailureIdentityNotFound
	// AuthFailurePermissionDenied: the identity misses a required role or ability.
	AuthFailurePermissionDenied
	// AuthFailureBanned: an active ban covers a required role or ability.
	AuthFailureBanned
	// AuthFailureSessionStore: the session store returned an error.
	AuthFailureSessionStore
	// AuthFailureDirectory: the user directory returned an error.
	AuthFailureDirectory
)

// AuthenticateResult is the tagged result of RunAuthenticate.
type AuthenticateResult struct {
	Outcome  Outcome
	Failure  AuthFailureKind
	Err      error
	Token    *jwt.Token
	Identity *permission.Identity
	Ban      *permission.Ban
}

// AuthenticateDeps captures the request-time state machine dependencies.
type AuthenticateDeps struct {
	Resolver     credential.Resolver
	Codec        TokenCodec
	SessionStore SessionStore
	Directory    Directory
	Now          func() time.Time
}

func denied(kind AuthFailureKind, err error) AuthenticateResult {
	return AuthenticateResult{Outcome: OutcomeDenied, Failure: kind, Err: err}
}

func failed(kind AuthFailureKind, err error) AuthenticateResult {
	return AuthenticateResult{Outcome: OutcomeFailed, Failure: kind, Err: err}
}

// RunAuthenticate executes the request state machine for route.
func RunAuthenticate(ctx context.Context, req credential.Request, route Route, deps AuthenticateDeps) AuthenticateResult {
	expected := route.ExpectedType()

	raw, err := deps.Resolver.Resolve(req, expected)
	switch {
	case errors.Is(err, credential.ErrCredentialEmpty):
		return denied(AuthFailureTokenInvalid, err)
	case errors.Is(err, credential.ErrSchemeInvalid):
		return denied(AuthFailureSchemeInvalid, err)
	case err != nil:
		return denied(AuthFailureHeaderMalformed, err)
	}
	if raw == "" {
		if route.Required {
			return denied(AuthFailureCredentialRequired, nil)
		}
		return AuthenticateResult{Outcome: OutcomeAnonymous}
	}

	tok, err := deps.Codec.Decode(raw)
	if err != nil {
		return denied(AuthFailureTokenInvalid, err)
	}

	if tok.Type != expected {
		return AuthenticateResult{Outcome: OutcomeDenied, Failure: AuthFailureTokenTypeMismatch, Token: tok}
	}

	active, err := deps.SessionStore.IsActive(ctx, tok.Subject, string(tok.Type), tok.ID)
	if err != nil {
		return failed(AuthFailureSessionStore, err)
	}
	if !active {
		return AuthenticateResult{Outcome: OutcomeDenied, Failure: AuthFailureTokenRevoked, Token: tok}
	}

	var identity *permission.Identity
	if deps.Directory != nil {
		identity, err = deps.Directory.Lookup(ctx, tok.Subject)
		if err != nil {
			return failed(AuthFailureDirectory, err)
		}
	}

	if route.HasRequirements() {
		if identity == nil {
			return AuthenticateResult{Outcome: OutcomeDenied, Failure: AuthFailureIdentityNotFound, Token: tok}
		}

		decision := permission.Evaluate(identity, route.Roles, route.Abilities, deps.Now())
		if decision.Ban != nil {
			return AuthenticateResult{
				Outcome:  OutcomeDenied,
				Failure:  AuthFailureBanned,
				Token:    tok,
				Identity: identity,
				Ban:      decision.Ban,
			}
		}
		if !decision.Allowed {
			return AuthenticateResult{Outcome: OutcomeDenied, Failure: AuthFailurePermissionDenied, Token: tok, Identity: identity}
		}
	}

	return AuthenticateResult{
		Outcome:  OutcomeAuthorized,
		Token:    tok,
		Identity: identity,
	}
}
