// Package seedauth authenticates HTTP requests with signed JWT access and refresh
// tokens, revokes them through a Redis session record, and authorizes them against
// role and ability requirements resolved from a user directory.
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Request flow
//
// [Engine.Authenticate] resolves the credential from a cookie or the Authorization
// header, verifies it, checks it is still the subject's active token, looks the
// subject up and evaluates the route's [Route.Roles] and [Route.Abilities].
// The result is a [Decision]; a denial never surfaces as the error result, which
// is reserved for dependency failures.
//
// # Token lifecycle
//
// Each subject has at most one active token per type. [Engine.Issue] replaces it,
// [Engine.Refresh] reissues the access token and rolls the refresh token once it
// enters the renewal window, and [Engine.Logout] revokes.
//
// # Architecture boundaries
//
// seedauth is the public surface. Flow orchestration and audit dispatch live under
// internal/. HTTP adapters live in middleware/, user directories in directory/.
package seedauth
