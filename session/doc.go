// Package session records which token is currently active for each subject.
//
// Each subject owns one Redis hash, "{prefix}:{subject}", whose fields are token types
// ("access", "refresh") and whose values are token ids. Writing a field supersedes
// the previous token of that type. Only refresh writes set the key expiry, so the
// record lives as long as the refresh token that backs it.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Record] model. It does NOT decode tokens or
// evaluate permissions; it must not import seedauth, jwt, or permission.
package session
