// Package middleware adapts seedauth.Engine to net/http.
//
// # Handlers
//
//   - [Guard]: authenticates each request against a Route and stores the decision
//     in the request context.
//   - [Require]: Guard for a required access route declared with requirement strings.
//   - [RefreshHandler] and [LogoutHandler]: token lifecycle endpoints.
//   - [WriteTokens] and [ClearTokens]: cookie and JSON response helpers.
//
// Denials are written as JSON with the denial symbol. Credential and token
// denials map to 401, permission and ban denials to 403, dependency failures to 500.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens or touch Redis itself.
package middleware
