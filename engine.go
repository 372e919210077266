package seedauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/seedkit/seedauth/credential"
	internalaudit "github.com/seedkit/seedauth/internal/audit"
	"github.com/seedkit/seedauth/internal/flows"
	"github.com/seedkit/seedauth/jwt"
	"github.com/seedkit/seedauth/permission"
	"github.com/seedkit/seedauth/session"
	"go.uber.org/zap"
)

// Engine authenticates requests and manages the token lifecycle. It is safe for
// concurrent use once built.
type Engine struct {
	config       Config
	registry     *permission.Registry
	codec        *jwt.Manager
	sessionStore *session.Store
	flows        flows.Service
	logger       *zap.Logger
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	now          func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// AuditDropped returns the number of audit events dropped under backpressure. Unlike
// MetricAuditDropped it counts even when metrics are disabled.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counters. A nil engine returns empty maps.
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

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

func credentialResolver(mode credential.Mode, c CookieConfig) credential.Resolver {
	return credential.Resolver{Mode: mode, CookieKeys: c.keys()}
}

/*
====================================
AUTHENTICATE
====================================
*/

// Authenticate runs the request state machine for route. Denials are reported in
// the Decision; the error result is reserved for ErrEngineNotReady and the fatal
// ErrSessionStoreUnavailable and ErrDirectoryUnavailable.
func (e *Engine) Authenticate(ctx context.Context, req credential.Request, route Route) (Decision, error) {
	if !e.ready() {
		return Decision{}, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}
	res := e.flows.Authenticate(ctx, req, route)
	if !start.IsZero() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	switch res.Outcome {
	case flows.OutcomeAnonymous:
		e.metricInc(MetricAuthAnonymous)
		return Decision{Outcome: Anonymous}, nil

	case flows.OutcomeAuthorized:
		e.metricInc(MetricAuthAuthorized)
		return Decision{Outcome: Authorized, Token: res.Token, Identity: res.Identity}, nil

	case flows.OutcomeFailed:
		err := e.dependencyError(res)
		e.metricInc(MetricAuthFailed)
		e.logger.Error("authenticate dependency failure",
			zap.String("route_type", string(route.ExpectedType())),
			zap.Error(err),
		)
		return Decision{}, err
	}

	denial := denialFor(res)
	e.metricInc(MetricAuthDenied)
	if id, ok := denialMetrics[denial.Reason]; ok {
		e.metricInc(id)
	}

	var subject, tokenID string
	if res.Token != nil {
		subject, tokenID = res.Token.Subject, res.Token.ID
	}
	e.logger.Debug("request denied",
		zap.String("symbol", string(denial.Symbol())),
		zap.String("subject", subject),
		zap.String("route_type", string(route.ExpectedType())),
		zap.NamedError("cause", denial.Cause),
	)
	ev := AuditEvent{Kind: AuditAuthDenied, Subject: subject, TokenID: tokenID, RouteType: string(route.ExpectedType())}
	if res.Token != nil {
		ev.TokenType = string(res.Token.Type)
	}
	e.emitAudit(ctx, ev, denial)

	return Decision{
		Outcome:  Denied,
		Token:    res.Token,
		Identity: res.Identity,
		Denial:   denial,
	}, nil
}

// AuthenticateHTTP resolves the credential from r and calls Authenticate with the
// request context.
func (e *Engine) AuthenticateHTTP(r *http.Request, route Route) (Decision, error) {
	return e.Authenticate(r.Context(), credential.FromHTTP(r), route)
}

var failureReasons = map[flows.AuthFailureKind]error{
	flows.AuthFailureCredentialRequired: ErrCredentialRequired,
	flows.AuthFailureHeaderMalformed:    ErrHeaderMalformed,
	flows.AuthFailureSchemeInvalid:      ErrSchemeInvalid,
	flows.AuthFailureTokenInvalid:       ErrTokenInvalid,
	flows.AuthFailureTokenTypeMismatch:  ErrTokenTypeMismatch,
	flows.AuthFailureTokenRevoked:       ErrTokenRevoked,
	flows.AuthFailureIdentityNotFound:   ErrIdentityNotFound,
	flows.AuthFailurePermissionDenied:   ErrPermissionDenied,
	flows.AuthFailureBanned:             ErrBanned,
}

func denialFor(res flows.AuthenticateResult) *Denial {
	reason, ok := failureReasons[res.Failure]
	if !ok {
		reason = ErrTokenInvalid
	}
	return &Denial{Reason: reason, Cause: res.Err, Ban: res.Ban}
}

func (e *Engine) dependencyError(res flows.AuthenticateResult) error {
	if res.Failure == flows.AuthFailureDirectory {
		e.metricInc(MetricDirectoryFailure)
		return fmt.Errorf("%w: %w", ErrDirectoryUnavailable, res.Err)
	}
	e.metricInc(MetricSessionStoreFailure)
	return fmt.Errorf("%w: %w", ErrSessionStoreUnavailable, res.Err)
}

func (e *Engine) storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrRedisUnavailable) {
		e.metricInc(MetricSessionStoreFailure)
		return fmt.Errorf("%w: %w", ErrSessionStoreUnavailable, err)
	}
	return err
}

// CheckRoute reports names in route that were not declared through
// Builder.WithRoles or Builder.WithAbilities. Without declarations every route passes.
func (e *Engine) CheckRoute(route Route) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.registry == nil {
		return nil
	}
	if err := e.registry.Check(permission.KindRole, route.Roles); err != nil {
		return err
	}
	return e.registry.Check(permission.KindAbility, route.Abilities)
}

/*
====================================
TOKEN LIFECYCLE
====================================
*/

// Issue signs a token of tokenType for subject with the configured TTL and makes it
// the subject's active token of that type. Previously issued tokens of the same
// type stop authenticating.
func (e *Engine) Issue(ctx context.Context, subject string, payload map[string]any, tokenType TokenType) (*Token, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if subject == "" {
		return nil, errors.New("subject required")
	}
	if !tokenType.Valid() {
		return nil, fmt.Errorf("unknown token type %q", tokenType)
	}

	tok, err := e.flows.Issue(ctx, subject, payload, tokenType, e.ttlFor(tokenType))
	if err != nil {
		err = e.storeError(err)
		e.emitAudit(ctx, AuditEvent{Kind: AuditTokenIssued, Subject: subject, TokenType: string(tokenType)}, err)
		return nil, err
	}
	e.metricInc(MetricTokenIssued)
	e.logger.Debug("token issued",
		zap.String("subject", subject),
		zap.String("token_type", string(tokenType)),
		zap.String("token_id", tok.ID),
	)
	e.emitAudit(ctx, AuditEvent{Kind: AuditTokenIssued, Subject: subject, TokenType: string(tokenType), TokenID: tok.ID}, nil)
	return tok, nil
}

// IssuePair issues an access token and a refresh token sharing payload.
func (e *Engine) IssuePair(ctx context.Context, subject string, payload map[string]any) (TokenSet, error) {
	access, err := e.Issue(ctx, subject, payload, TokenAccess)
	if err != nil {
		return TokenSet{}, err
	}
	refresh, err := e.Issue(ctx, subject, payload, TokenRefresh)
	if err != nil {
		return TokenSet{}, err
	}
	return TokenSet{Access: access, Refresh: refresh}, nil
}

// Refresh reissues the access token for an authenticated refresh token. When the
// refresh token has no more than JWT.RenewalWindow left it is reissued too and the
// old one stops authenticating. The payload carries over.
//
// Callers must pass a token obtained from Authenticate on a refresh route; Refresh
// does not repeat the revocation check.
func (e *Engine) Refresh(ctx context.Context, refresh *Token) (TokenSet, error) {
	if !e.ready() {
		return TokenSet{}, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refresh)
	switch res.Failure {
	case flows.RefreshFailureNotRefreshToken:
		e.metricInc(MetricRefreshFailure)
		return TokenSet{}, ErrNotRefreshToken
	case flows.RefreshFailureIssue:
		e.metricInc(MetricRefreshFailure)
		err := e.storeError(res.Err)
		e.emitAudit(ctx, AuditEvent{Kind: AuditTokenRefreshed, Subject: refresh.Subject, TokenType: string(TokenRefresh), TokenID: refresh.ID}, err)
		return TokenSet{}, err
	}

	issued := MetricRefreshAccessOnly
	if res.Rolled {
		issued = MetricRefreshRolled
		e.metricInc(MetricTokenIssued)
	}
	e.metricInc(MetricTokenIssued)
	e.metricInc(issued)

	e.logger.Debug("token refreshed",
		zap.String("subject", refresh.Subject),
		zap.Bool("rolled", res.Rolled),
	)
	if e.auditing() {
		detail := map[string]string{"access_token_id": res.Pair.Access.ID}
		if res.Rolled {
			detail["refresh_token_id"] = res.Pair.Refresh.ID
		}
		e.emitAudit(ctx, AuditEvent{
			Kind:      AuditTokenRefreshed,
			Subject:   refresh.Subject,
			TokenType: string(TokenRefresh),
			TokenID:   refresh.ID,
			Detail:    detail,
		}, nil)
	}

	return TokenSet{Access: res.Pair.Access, Refresh: res.Pair.Refresh}, nil
}

// RefreshRequest authenticates req against a required refresh route and refreshes
// the presented token. A denial is returned as a *Denial error.
func (e *Engine) RefreshRequest(ctx context.Context, req credential.Request) (TokenSet, error) {
	d, err := e.Authenticate(ctx, req, Route{Required: true, TokenType: TokenRefresh})
	if err != nil {
		return TokenSet{}, err
	}
	if d.Outcome != Authorized {
		return TokenSet{}, d.Err()
	}
	return e.Refresh(ctx, d.Token)
}

// Logout revokes the given token types for subject, or all of them when none are
// given. Revoking the refresh type deletes the whole session record.
func (e *Engine) Logout(ctx context.Context, subject string, types ...TokenType) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.flows.Logout(ctx, subject, types...); err != nil {
		err = e.storeError(err)
		e.emitAudit(ctx, AuditEvent{Kind: AuditLogout, Subject: subject}, err)
		return err
	}
	e.metricInc(MetricLogout)
	if e.auditing() {
		e.emitAudit(ctx, AuditEvent{
			Kind:    AuditLogout,
			Subject: subject,
			Detail:  map[string]string{"types": logoutTypes(types)},
		}, nil)
	}
	return nil
}

// Decode verifies credential without consulting the session store.
func (e *Engine) Decode(credential string) (*Token, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	return e.codec.Decode(credential)
}

func (e *Engine) ttlFor(tokenType TokenType) time.Duration {
	if tokenType == TokenRefresh {
		return e.config.JWT.RefreshTokenTTL
	}
	return e.config.JWT.AccessTokenTTL
}

func logoutTypes(types []TokenType) string {
	if len(types) == 0 {
		return "all"
	}
	out := ""
	for i, t := range types {
		if i > 0 {
			out += ","
		}
		out += string(t)
	}
	return out
}
