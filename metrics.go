package meshauth

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by meshauth APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricAuthorizedUser is an exported constant or variable used by the authorization engine.
	MetricAuthorizedUser MetricID = iota
	// MetricAuthorizedGuest is an exported constant or variable used by the authorization engine.
	MetricAuthorizedGuest
	// MetricUnauthorizedUser is an exported constant or variable used by the authorization engine.
	MetricUnauthorizedUser
	// MetricUnauthorizedGuest is an exported constant or variable used by the authorization engine.
	MetricUnauthorizedGuest
	// MetricGuestIssued is an exported constant or variable used by the authorization engine.
	MetricGuestIssued
	// MetricUnexpectedError is an exported constant or variable used by the authorization engine.
	MetricUnexpectedError
	// MetricAccessValidated is an exported constant or variable used by the authorization engine.
	MetricAccessValidated
	// MetricSessionMismatch is an exported constant or variable used by the authorization engine.
	MetricSessionMismatch
	// MetricRefreshRotated is an exported constant or variable used by the authorization engine.
	MetricRefreshRotated
	// MetricRefreshInvalid is an exported constant or variable used by the authorization engine.
	MetricRefreshInvalid
	// MetricFingerprintMismatch is an exported constant or variable used by the authorization engine.
	MetricFingerprintMismatch
	// MetricSessionCreated is an exported constant or variable used by the authorization engine.
	MetricSessionCreated
	// MetricSessionRevoked is an exported constant or variable used by the authorization engine.
	MetricSessionRevoked
	// MetricRefreshRevoked is an exported constant or variable used by the authorization engine.
	MetricRefreshRevoked
	// MetricCredentialsIssued is an exported constant or variable used by the authorization engine.
	MetricCredentialsIssued
	// MetricCleanupDropped is an exported constant or variable used by the authorization engine.
	MetricCleanupDropped
	// MetricAuthorizeLatency is an exported constant or variable used by the authorization engine.
	MetricAuthorizeLatency
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

// Metrics defines a public type used by meshauth APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by meshauth APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a [Metrics] recorder from the given configuration.
//
// A disabled recorder keeps all operations as cheap no-ops so call sites never
// need to branch on configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counter recording is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histogram recording is active.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter for id.
//
// Performance: lock-free, a single padded atomic add per call.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) inc(id MetricID) {
	m.Inc(id)
}

// Observe records a latency sample for id into its histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricAuthorizeLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of the counter for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a point-in-time copy of all counters and histograms.
//
// The snapshot is not atomic across metrics; individual values are read
// atomically.
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
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricAuthorizeLatency].buckets[i])
		}
		s.Histograms[MetricAuthorizeLatency] = buckets
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
