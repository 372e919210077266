// Package permission evaluates role and ability requirements against a resolved identity.
//
// # Model
//
// An [Identity] holds roles, each with a set of abilities, and a list of [Ban] records.
// A ban is scoped to exactly one role or one ability and may carry an expiry; a ban
// without UntilAt never expires.
//
// A [Requirement] is an AND of [Term] values, and each term is an OR of names. Empty
// requirements always pass. A matching active ban overrides a passing requirement.
//
// # Architecture boundaries
//
// This package is pure in-memory logic with no I/O. Directory adapters produce
// identities; the engine consumes the evaluation results.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import seedauth, jwt, or session.
package permission
