package internaldefs

import (
	"github.com/seedkit/seedauth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   seedauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   seedauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: seedauth.MetricAuthAnonymous, Name: "seedauth_auth_anonymous_total", Help: "Requests passed through without a credential."},
	{ID: seedauth.MetricAuthAuthorized, Name: "seedauth_auth_authorized_total", Help: "Requests authorized."},
	{ID: seedauth.MetricAuthDenied, Name: "seedauth_auth_denied_total", Help: "Requests denied for any reason."},
	{ID: seedauth.MetricAuthFailed, Name: "seedauth_auth_failed_total", Help: "Authenticate calls aborted by a dependency failure."},
	{ID: seedauth.MetricTokenIssued, Name: "seedauth_token_issued_total", Help: "Tokens signed and recorded."},
	{ID: seedauth.MetricRefreshAccessOnly, Name: "seedauth_refresh_access_only_total", Help: "Refreshes that reissued only the access token."},
	{ID: seedauth.MetricRefreshRolled, Name: "seedauth_refresh_rolled_total", Help: "Refreshes that also reissued the refresh token."},
	{ID: seedauth.MetricRefreshFailure, Name: "seedauth_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: seedauth.MetricLogout, Name: "seedauth_logout_total", Help: "Logout operations."},
	{ID: seedauth.MetricSessionStoreFailure, Name: "seedauth_session_store_failure_total", Help: "Session store errors."},
	{ID: seedauth.MetricDirectoryFailure, Name: "seedauth_directory_failure_total", Help: "User directory errors."},
	{ID: seedauth.MetricAuditDropped, Name: "seedauth_audit_dropped_total", Help: "Audit events dropped because the dispatcher queue was full."},
}

// DenialFamily is the labelled counter family holding one series per denial symbol.
const (
	DenialFamily      = "seedauth_auth_denied_by_reason_total"
	DenialFamilyHelp  = "Denials by reason symbol."
	DenialSymbolLabel = "symbol"
)

// DenialDef binds a per-reason counter to its symbol label value.
type DenialDef struct {
	ID     seedauth.MetricID
	Symbol seedauth.Symbol
}

// DenialDefs lists the per-reason denial counters in symbol table order.
var DenialDefs = []DenialDef{
	{ID: seedauth.MetricDenyCredentialRequired, Symbol: seedauth.SymbolCredentialRequired},
	{ID: seedauth.MetricDenyHeaderMalformed, Symbol: seedauth.SymbolHeaderMalformed},
	{ID: seedauth.MetricDenySchemeInvalid, Symbol: seedauth.SymbolSchemeInvalid},
	{ID: seedauth.MetricDenyTokenInvalid, Symbol: seedauth.SymbolTokenInvalid},
	{ID: seedauth.MetricDenyTokenTypeMismatch, Symbol: seedauth.SymbolTokenTypeMismatch},
	{ID: seedauth.MetricDenyTokenRevoked, Symbol: seedauth.SymbolTokenRevoked},
	{ID: seedauth.MetricDenyIdentityNotFound, Symbol: seedauth.SymbolIdentityNotFound},
	{ID: seedauth.MetricDenyPermission, Symbol: seedauth.SymbolPermissionDenied},
	{ID: seedauth.MetricDenyBanned, Symbol: seedauth.SymbolBanned},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: seedauth.MetricAuthenticateLatency, Name: "seedauth_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the le label values of the eight latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
