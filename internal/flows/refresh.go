package flows

import (
	"context"
	"time"

	"github.com/seedkit/seedauth/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	// RefreshFailureNone means the refresh succeeded.
	RefreshFailureNone RefreshFailureKind = iota
	// RefreshFailureNotRefreshToken means the presented token was not a refresh token.
	RefreshFailureNotRefreshToken
	// RefreshFailureIssue means a replacement token could not be issued or recorded.
	RefreshFailureIssue
)

// RefreshResult carries either the reissued tokens or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Pair    TokenPair
	// Rolled is true when the refresh token was reissued as well.
	Rolled bool
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Issue         IssueDeps
	RenewalWindow time.Duration
	Now           func() time.Time
}

// ShouldRoll reports whether a refresh token is close enough to expiry to be
// reissued. Tokens without expiry never roll.
func ShouldRoll(refresh *jwt.Token, window time.Duration, now time.Time) bool {
	remaining, ok := refresh.Remaining(now)
	if !ok {
		return false
	}
	return remaining <= window
}

// RunRefresh reissues the access token for an authenticated refresh token and, inside
// the renewal window, the refresh token too. The payload carries over.
//
// When rolling, the refresh token is recorded first so that a failed refresh write
// leaves the caller's session untouched. A failed access write after a successful
// refresh write still supersedes the caller's refresh token; the caller must log in
// again.
func RunRefresh(ctx context.Context, refresh *jwt.Token, deps RefreshDeps) RefreshResult {
	if refresh == nil || refresh.Type != jwt.TypeRefresh {
		return RefreshResult{Failure: RefreshFailureNotRefreshToken}
	}

	var next *jwt.Token
	if ShouldRoll(refresh, deps.RenewalWindow, deps.Now()) {
		var err error
		next, err = RunIssue(ctx, refresh.Subject, refresh.Payload, jwt.TypeRefresh, deps.Issue.RefreshTTL, deps.Issue)
		if err != nil {
			return RefreshResult{Failure: RefreshFailureIssue, Err: err}
		}
	}

	access, err := RunIssue(ctx, refresh.Subject, refresh.Payload, jwt.TypeAccess, deps.Issue.AccessTTL, deps.Issue)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err}
	}
	return RefreshResult{
		Pair:   TokenPair{Access: access, Refresh: next},
		Rolled: next != nil,
	}
}
