package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/seedkit/seedauth"
	"github.com/seedkit/seedauth/credential"
)

// WriteTokens sets one cookie per token (and per configured domain) and writes the
// JSON token body with status 201. Cookie Max-Age equals the token TTL; tokens
// without TTL become session cookies.
func WriteTokens(w http.ResponseWriter, cfg seedauth.CookieConfig, set seedauth.TokenSet) error {
	for _, tok := range set.Tokens() {
		for _, c := range cookies(cfg, tok.Type) {
			c.Value = tok.Credential
			c.MaxAge = int(tok.TTL / time.Second)
			http.SetCookie(w, c)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(set.Body())
}

// ClearTokens expires the cookies of the given token types, or of both types when
// none are given.
func ClearTokens(w http.ResponseWriter, cfg seedauth.CookieConfig, types ...seedauth.TokenType) {
	if len(types) == 0 {
		types = []seedauth.TokenType{seedauth.TokenAccess, seedauth.TokenRefresh}
	}
	for _, t := range types {
		for _, c := range cookies(cfg, t) {
			c.MaxAge = -1
			c.Expires = time.Unix(0, 0)
			http.SetCookie(w, c)
		}
	}
}

// cookies returns one cookie template per configured domain, or a host-only cookie
// when no domain is configured. A comma-joined Domain attribute is not valid and
// net/http would drop it.
func cookies(cfg seedauth.CookieConfig, tokenType seedauth.TokenType) []*http.Cookie {
	name := cfg.Key(tokenType)
	if name == "" {
		name = string(tokenType)
	}
	domains := cfg.Domains
	if len(domains) == 0 {
		domains = []string{""}
	}

	out := make([]*http.Cookie, 0, len(domains))
	for _, domain := range domains {
		out = append(out, &http.Cookie{
			Name:     name,
			Domain:   domain,
			Path:     cfg.Path,
			HttpOnly: cfg.HTTPOnly,
			Secure:   cfg.Secure,
			SameSite: sameSite(cfg.SameSite),
		})
	}
	return out
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

// RefreshHandler serves token refresh: it authenticates the refresh token of the
// request and responds with the reissued tokens.
func RefreshHandler(engine *seedauth.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			WriteError(w, seedauth.ErrEngineNotReady)
			return
		}
		set, err := engine.RefreshRequest(r.Context(), credential.FromHTTP(r))
		if err != nil {
			WriteError(w, err)
			return
		}
		_ = WriteTokens(w, engine.Config().Cookie, set)
	})
}

// LogoutHandler authenticates the access token of the request, revokes every token
// of its subject and expires the cookies. It responds 204.
func LogoutHandler(engine *seedauth.Engine) http.Handler {
	return Guard(engine, seedauth.Route{Required: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, _ := seedauth.TokenFromContext(r.Context())
		if err := engine.Logout(r.Context(), tok.Subject); err != nil {
			WriteError(w, err)
			return
		}
		ClearTokens(w, engine.Config().Cookie)
		w.WriteHeader(http.StatusNoContent)
	}))
}
