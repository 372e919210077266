// Package flows contains the orchestrators behind every Engine operation.
//
// Each Run* function takes a typed dependency struct and returns a tagged result.
// RunAuthenticate walks the request state machine (resolve, decode, type check,
// revocation check, identity lookup, permission check, ban check) and stops at the
// first exit. RunIssue, RunRefresh and RunLogout implement the token lifecycle on top
// of the session store.
//
// # Architecture boundaries
//
// Flow functions coordinate the codec, session store and user directory. They do NOT
// own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import seedauth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
