// Package prometheus renders seedauth metrics in the Prometheus text exposition
// format.
//
// Counter names are prefixed seedauth_ and end in _total. Denials are one family,
// seedauth_auth_denied_by_reason_total, labelled by symbol. The only histogram is
// seedauth_authenticate_latency_seconds.
//
// Nothing is registered globally; callers mount [PrometheusExporter.Handler].
package prometheus
