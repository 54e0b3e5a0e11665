// Package prometheus provides Prometheus collectors for goPortal metrics.
//
// [NewPrometheusExporter] accepts an [goPortal.Engine] and exposes an [http.Handler]
// that renders all goPortal counters and histograms in Prometheus text exposition format.
// Counter names are prefixed goportal_*_total; the single histogram is
// goportal_resume_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
