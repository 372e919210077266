package seedauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricAuthAnonymous counts requests passed through without a credential.
	MetricAuthAnonymous MetricID = iota
	// MetricAuthAuthorized counts requests that passed every check.
	MetricAuthAuthorized
	// MetricAuthDenied counts local denials of any reason.
	MetricAuthDenied
	// MetricAuthFailed counts Authenticate calls aborted by a dependency failure.
	MetricAuthFailed

	// Per-reason denial counters, one per [Symbol]. Each denial also counts
	// towards MetricAuthDenied.
	MetricDenyCredentialRequired
	MetricDenyHeaderMalformed
	MetricDenySchemeInvalid
	MetricDenyTokenInvalid
	MetricDenyTokenTypeMismatch
	MetricDenyTokenRevoked
	MetricDenyIdentityNotFound
	MetricDenyPermission
	MetricDenyBanned

	// MetricTokenIssued counts every signed and recorded token, including refresh reissues.
	MetricTokenIssued
	// MetricRefreshAccessOnly counts refreshes that reissued only the access token.
	MetricRefreshAccessOnly
	// MetricRefreshRolled counts refreshes that also reissued the refresh token.
	MetricRefreshRolled
	// MetricRefreshFailure counts refresh calls that returned an error.
	MetricRefreshFailure
	// MetricLogout counts successful logouts.
	MetricLogout
	// MetricSessionStoreFailure counts session store errors across all operations.
	MetricSessionStoreFailure
	// MetricDirectoryFailure counts user directory errors.
	MetricDirectoryFailure
	// MetricAuditDropped counts audit events discarded because the dispatcher queue was full.
	MetricAuditDropped
	// MetricAuthenticateLatency is the only histogram.
	MetricAuthenticateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters. A nil or disabled Metrics ignores all
// updates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
// Histogram buckets are non-cumulative.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only MetricAuthenticateLatency is a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricAuthenticateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Disabled metrics produce empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricAuthenticateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricAuthenticateLatency].buckets[i])
		}
		s.Histograms[MetricAuthenticateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

var denialMetrics = map[error]MetricID{
	ErrCredentialRequired: MetricDenyCredentialRequired,
	ErrHeaderMalformed:    MetricDenyHeaderMalformed,
	ErrSchemeInvalid:      MetricDenySchemeInvalid,
	ErrTokenInvalid:       MetricDenyTokenInvalid,
	ErrTokenTypeMismatch:  MetricDenyTokenTypeMismatch,
	ErrTokenRevoked:       MetricDenyTokenRevoked,
	ErrIdentityNotFound:   MetricDenyIdentityNotFound,
	ErrPermissionDenied:   MetricDenyPermission,
	ErrBanned:             MetricDenyBanned,
}
