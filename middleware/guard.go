package middleware

import (
	"net/http"

	"github.com/seedkit/seedauth"
	"github.com/seedkit/seedauth/permission"
)

// Guard authenticates every request against route. Authorized and anonymous
// requests reach next; an authorized decision is available through
// seedauth.TokenFromContext and seedauth.IdentityFromContext.
func Guard(engine *seedauth.Engine, route seedauth.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, seedauth.ErrEngineNotReady)
				return
			}

			d, err := engine.AuthenticateHTTP(r, route)
			if err != nil {
				WriteError(w, err)
				return
			}
			if d.Outcome == seedauth.Denied {
				WriteError(w, d.Denial)
				return
			}

			next.ServeHTTP(w, r.WithContext(seedauth.WithDecision(r.Context(), d)))
		})
	}
}

// Require guards a required access route. roles and abilities use the
// requirement syntax of permission.ParseRequirement, e.g. "admin|owner, staff".
// It panics on malformed expressions.
func Require(engine *seedauth.Engine, roles, abilities string) func(http.Handler) http.Handler {
	return Guard(engine, seedauth.Route{
		Required:  true,
		Roles:     permission.MustParseRequirement(roles),
		Abilities: permission.MustParseRequirement(abilities),
	})
}
