// Package internal holds the engine's private building blocks.
//
//   - audit: buffered event dispatch and sinks
//   - flows: the authenticate, issue, refresh, logout and introspection state machines
//   - units: human-readable duration parsing for configuration
package internal
