package flows

import (
	"context"
	"time"

	"github.com/seedkit/seedauth/jwt"
	"github.com/seedkit/seedauth/session"
)

// IntrospectionSessionStore is the read side of the session store.
type IntrospectionSessionStore interface {
	Get(ctx context.Context, subject string) (session.Record, error)
	IsActive(ctx context.Context, subject, tokenType, tokenID string) (bool, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// IntrospectionDeps captures introspection dependencies.
type IntrospectionDeps struct {
	Codec        TokenCodec
	SessionStore IntrospectionSessionStore
}

// TokenStatus describes a credential without evaluating any route policy.
type TokenStatus struct {
	Token  *jwt.Token
	Active bool
}

// RunActiveSession returns the stored record for subject.
func RunActiveSession(ctx context.Context, subject string, deps IntrospectionDeps) (session.Record, error) {
	return deps.SessionStore.Get(ctx, subject)
}

// RunInspect decodes credential and reports whether it is still the active token.
// Decode errors are returned as-is.
func RunInspect(ctx context.Context, credential string, deps IntrospectionDeps) (TokenStatus, error) {
	tok, err := deps.Codec.Decode(credential)
	if err != nil {
		return TokenStatus{}, err
	}
	active, err := deps.SessionStore.IsActive(ctx, tok.Subject, string(tok.Type), tok.ID)
	if err != nil {
		return TokenStatus{Token: tok}, err
	}
	return TokenStatus{Token: tok, Active: active}, nil
}

// RunHealth pings the session store.
func RunHealth(ctx context.Context, deps IntrospectionDeps) (time.Duration, error) {
	return deps.SessionStore.Ping(ctx)
}
