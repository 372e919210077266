// Package otel publishes seedauth counters and the authenticate latency histogram
// through OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter, a
// single denial counter carrying a "symbol" attribute, and per histogram a bucket
// gauge carrying an "le" attribute plus a count gauge. A single callback reads
// [seedauth.Engine.MetricsSnapshot] on each collection cycle.
//
// Callers own the MeterProvider and supply the Meter.
package otel
