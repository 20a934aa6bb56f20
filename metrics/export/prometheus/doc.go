// Package prometheus provides Prometheus collectors for meshauth metrics.
//
// [NewCollector] accepts a [meshauth.Engine] and implements
// prometheus.Collector over the engine's metrics snapshot. Counter names are
// prefixed meshauth_*_total; the single histogram is
// meshauth_authorize_latency_seconds. [Collector.Handler] wires the collector
// into a private registry and serves it via promhttp.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler
//     or register the Collector themselves.
//   - Mutate engine state.
package prometheus
