package seedauth

import (
	"context"
	"time"

	internalaudit "github.com/seedkit/seedauth/internal/audit"
	"github.com/seedkit/seedauth/internal/flows"
	"github.com/seedkit/seedauth/jwt"
	"github.com/seedkit/seedauth/permission"
	"github.com/seedkit/seedauth/session"
)

// Token is a decoded, verified credential.
type Token = jwt.Token

// TokenType discriminates access and refresh tokens.
type TokenType = jwt.TokenType

const (
	// TokenAccess is the default route token type.
	TokenAccess = jwt.TypeAccess
	// TokenRefresh is accepted only by refresh routes.
	TokenRefresh = jwt.TypeRefresh
)

// Identity is a resolved subject with its roles and bans.
type Identity = permission.Identity

// Role is a named role with the abilities it grants.
type Role = permission.Role

// Ban denies one role or ability, optionally until a point in time.
type Ban = permission.Ban

// Requirement is an AND-of-ORs list of role or ability names.
type Requirement = permission.Requirement

// Route declares a handler's access policy. The zero Route accepts anonymous
// requests and access tokens.
type Route = flows.Route

// SessionRecord is the stored set of active token ids for one subject.
type SessionRecord = session.Record

// UserDirectory resolves subjects to identities. Lookup returns (nil, nil) for
// unknown subjects; any error is treated as a dependency failure.
type UserDirectory interface {
	Lookup(ctx context.Context, subject string) (*Identity, error)
}

// Outcome is the terminal state of Authenticate.
type Outcome int

const (
	// Anonymous means the request carried no credential and the route allowed that.
	Anonymous Outcome = iota
	// Authorized means every check passed.
	Authorized
	// Denied means a check failed; Decision.Denial carries the reason.
	Denied
)

func (o Outcome) String() string {
	switch o {
	case Anonymous:
		return "anonymous"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Decision is the tagged result of Authenticate.
type Decision struct {
	Outcome  Outcome
	Token    *Token
	Identity *Identity
	Denial   *Denial
}

// Err returns the denial as an error, or nil for non-denied decisions.
func (d Decision) Err() error {
	if d.Denial == nil {
		return nil
	}
	return d.Denial
}

// TokenSet holds the tokens produced by an issuance or refresh. Refresh is nil when
// only the access token was reissued.
type TokenSet struct {
	Access  *Token
	Refresh *Token
}

// Tokens returns the non-nil tokens of s in access, refresh order.
func (s TokenSet) Tokens() []*Token {
	out := make([]*Token, 0, 2)
	if s.Access != nil {
		out = append(out, s.Access)
	}
	if s.Refresh != nil {
		out = append(out, s.Refresh)
	}
	return out
}

// Body renders s as the JSON response fields "{type}_token" and
// "{type}_token_expires" (seconds; omitted for tokens without TTL).
func (s TokenSet) Body() map[string]any {
	body := make(map[string]any, 4)
	for _, tok := range s.Tokens() {
		body[string(tok.Type)+"_token"] = tok.Credential
		if tok.TTL > 0 {
			body[string(tok.Type)+"_token_expires"] = int64(tok.TTL / time.Second)
		}
	}
	return body
}

// TokenStatus describes a credential without evaluating a route policy.
type TokenStatus = flows.TokenStatus

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditKind names the operation an [AuditEvent] records.
type AuditKind = internalaudit.Kind

// Audit event kinds.
const (
	AuditTokenIssued    = internalaudit.KindTokenIssued
	AuditTokenRefreshed = internalaudit.KindTokenRefreshed
	AuditLogout         = internalaudit.KindLogout
	AuditAuthDenied     = internalaudit.KindAuthDenied
)

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an io.Writer.
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink is an [AuditSink] that logs events through zap.
type ZapSink = internalaudit.ZapSink

// MultiSink fans events out to several sinks.
type MultiSink = internalaudit.MultiSink

// NewChannelSink creates a [ChannelSink] with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] writing to w.
var NewJSONWriterSink = internalaudit.NewJSONWriterSink

// NewZapSink creates a [ZapSink] writing through logger.
var NewZapSink = internalaudit.NewZapSink
