package prometheus

import (
	"net/http"

	meshauth "github.com/meshtrust/meshauth"
	"github.com/meshtrust/meshauth/metrics/export/internaldefs"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() meshauth.MetricsSnapshot
	AuditDropped() uint64
}

type counterDesc struct {
	id   meshauth.MetricID
	desc *prom.Desc
}

type histogramDesc struct {
	id   meshauth.MetricID
	desc *prom.Desc
}

// Collector implements prometheus.Collector over a meshauth metrics snapshot.
//
// Collector instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Collector struct {
	source       metricsSource
	counters     []counterDesc
	histograms   []histogramDesc
	auditDropped *prom.Desc
}

// NewCollector creates a [Collector] that reads from the given [meshauth.Engine].
func NewCollector(engine *meshauth.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource creates a [Collector] from a custom metrics source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:     source,
		counters:   make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms: make([]histogramDesc, 0, len(internaldefs.HistogramDefs)),
	}

	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, counterDesc{
			id:   def.ID,
			desc: prom.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, histogramDesc{
			id:   def.ID,
			desc: prom.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	c.auditDropped = prom.NewDesc(
		"meshauth_audit_dropped_total",
		"Dropped audit events due to dispatcher backpressure.",
		nil, nil,
	)

	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prom.Desc) {
	for _, counter := range c.counters {
		ch <- counter.desc
	}
	for _, histogram := range c.histograms {
		ch <- histogram.desc
	}
	ch <- c.auditDropped
}

// Collect implements prometheus.Collector. Each scrape takes one snapshot so
// all exposed values come from the same collection cycle.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()

	for _, counter := range c.counters {
		ch <- prom.MustNewConstMetric(
			counter.desc,
			prom.CounterValue,
			float64(snapshot.Counters[counter.id]),
		)
	}

	for _, histogram := range c.histograms {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[histogram.id])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)

		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, le := range internaldefs.HistogramUpperBounds {
			buckets[le] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]

		// Sum is not tracked in core snapshots; expose zero for a stable shape.
		ch <- prom.MustNewConstHistogram(histogram.desc, count, 0, buckets)
	}

	ch <- prom.MustNewConstMetric(
		c.auditDropped,
		prom.CounterValue,
		float64(c.source.AuditDropped()),
	)
}

// Handler returns an http.Handler serving this collector from a private
// registry.
func (c *Collector) Handler() http.Handler {
	registry := prom.NewRegistry()
	registry.MustRegister(c)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
