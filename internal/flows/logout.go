package flows

import (
	"context"

	"github.com/seedkit/seedauth/jwt"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	SessionStore SessionStore
}

// RunLogout revokes the given token types for subject. No types means all of them.
func RunLogout(ctx context.Context, subject string, types []jwt.TokenType, deps LogoutDeps) error {
	if len(types) == 0 {
		types = []jwt.TokenType{jwt.TypeAccess, jwt.TypeRefresh}
	}
	fields := make([]string, len(types))
	for i, t := range types {
		fields[i] = string(t)
	}
	return deps.SessionStore.Revoke(ctx, subject, fields...)
}
