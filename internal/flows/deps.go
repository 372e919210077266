package flows

import (
	"context"
	"time"

	"github.com/seedkit/seedauth/jwt"
	"github.com/seedkit/seedauth/permission"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Authenticate  AuthenticateDeps
	Issue         IssueDeps
	Refresh       RefreshDeps
	Logout        LogoutDeps
	Introspection IntrospectionDeps
}

// TokenCodec creates and decodes signed tokens.
type TokenCodec interface {
	Create(subject string, tokenType jwt.TokenType, payload map[string]any, ttl time.Duration) (*jwt.Token, error)
	Decode(credential string) (*jwt.Token, error)
}

// SessionStore is the revocation store contract.
type SessionStore interface {
	RecordActive(ctx context.Context, subject, tokenType, tokenID string, ttl time.Duration) error
	IsActive(ctx context.Context, subject, tokenType, tokenID string) (bool, error)
	Revoke(ctx context.Context, subject string, tokenTypes ...string) error
}

// Directory resolves a subject into an identity. A nil identity with a nil error
// means the subject is unknown.
type Directory interface {
	Lookup(ctx context.Context, subject string) (*permission.Identity, error)
}
