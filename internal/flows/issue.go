package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/seedkit/seedauth/jwt"
)

// IssueDeps captures token issuance dependencies.
type IssueDeps struct {
	Codec        TokenCodec
	SessionStore SessionStore
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// TTLFor returns the configured lifetime for tokenType.
func (d IssueDeps) TTLFor(tokenType jwt.TokenType) time.Duration {
	if tokenType == jwt.TypeRefresh {
		return d.RefreshTTL
	}
	return d.AccessTTL
}

// TokenPair is an access token with an optional refresh token.
type TokenPair struct {
	Access  *jwt.Token
	Refresh *jwt.Token
}

// RunIssue signs a new token and then records it as the active one for its type.
// A token whose record write fails is discarded.
func RunIssue(ctx context.Context, subject string, payload map[string]any, tokenType jwt.TokenType, ttl time.Duration, deps IssueDeps) (*jwt.Token, error) {
	tok, err := deps.Codec.Create(subject, tokenType, payload, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue %s token: %w", tokenType, err)
	}

	var recordTTL time.Duration
	if tokenType == jwt.TypeRefresh {
		recordTTL = ttl
	}
	if err := deps.SessionStore.RecordActive(ctx, subject, string(tokenType), tok.ID, recordTTL); err != nil {
		return nil, err
	}
	return tok, nil
}

// RunIssuePair issues an access token and a refresh token with the configured TTLs.
func RunIssuePair(ctx context.Context, subject string, payload map[string]any, deps IssueDeps) (TokenPair, error) {
	access, err := RunIssue(ctx, subject, payload, jwt.TypeAccess, deps.AccessTTL, deps)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := RunIssue(ctx, subject, payload, jwt.TypeRefresh, deps.RefreshTTL, deps)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
