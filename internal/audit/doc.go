// Package audit delivers the engine's audit events to a caller-supplied sink.
//
// # Components
//
//   - [Event]: one record per issuance, refresh, logout or denial, carrying the
//     denial symbol and the route's token type.
//   - [Sink]: event consumer (channel, JSON lines, zap, fan-out, no-op).
//   - [Dispatcher]: single-worker queue that either drops or blocks when full.
//     Drops are counted, logged once and reported through Config.OnDrop.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The Engine decides which events to
// emit and fills Symbol from its denial table.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import seedauth or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
