package flows

import (
	"context"
	"time"

	"github.com/seedkit/seedauth/credential"
	"github.com/seedkit/seedauth/jwt"
	"github.com/seedkit/seedauth/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.Codec != nil && s.deps.Authenticate.SessionStore != nil
}

func (s Service) Authenticate(ctx context.Context, req credential.Request, route Route) AuthenticateResult {
	return RunAuthenticate(ctx, req, route, s.deps.Authenticate)
}

func (s Service) Issue(ctx context.Context, subject string, payload map[string]any, tokenType jwt.TokenType, ttl time.Duration) (*jwt.Token, error) {
	return RunIssue(ctx, subject, payload, tokenType, ttl, s.deps.Issue)
}

func (s Service) IssuePair(ctx context.Context, subject string, payload map[string]any) (TokenPair, error) {
	return RunIssuePair(ctx, subject, payload, s.deps.Issue)
}

func (s Service) Refresh(ctx context.Context, refresh *jwt.Token) RefreshResult {
	return RunRefresh(ctx, refresh, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, subject string, types ...jwt.TokenType) error {
	return RunLogout(ctx, subject, types, s.deps.Logout)
}

func (s Service) ActiveSession(ctx context.Context, subject string) (session.Record, error) {
	return RunActiveSession(ctx, subject, s.deps.Introspection)
}

func (s Service) Inspect(ctx context.Context, credential string) (TokenStatus, error) {
	return RunInspect(ctx, credential, s.deps.Introspection)
}

func (s Service) Health(ctx context.Context) (time.Duration, error) {
	return RunHealth(ctx, s.deps.Introspection)
}
