package seedauth

import "context"

type clientIPContextKey struct{}
type identityContextKey struct{}
type tokenContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. It is copied into audit
// events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithDecision stores the token and identity of an authorized decision in ctx.
// Anonymous and denied decisions leave ctx unchanged.
func WithDecision(ctx context.Context, d Decision) context.Context {
	if d.Outcome != Authorized {
		return ctx
	}
	if d.Token != nil {
		ctx = WithToken(ctx, d.Token)
	}
	if d.Identity != nil {
		ctx = WithIdentity(ctx, d.Identity)
	}
	return ctx
}

// WithToken attaches a decoded token to ctx.
func WithToken(ctx context.Context, tok *Token) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, tok)
}

// WithIdentity attaches a resolved identity to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// TokenFromContext returns the token stored by WithToken or WithDecision.
func TokenFromContext(ctx context.Context) (*Token, bool) {
	if ctx == nil {
		return nil, false
	}
	tok, ok := ctx.Value(tokenContextKey{}).(*Token)
	return tok, ok && tok != nil
}

// IdentityFromContext returns the identity stored by WithIdentity or WithDecision. Authorized
// requests without a known identity report false.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok && id != nil
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
