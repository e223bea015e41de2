// Package prometheus exposes apiguard metrics as a Prometheus collector.
//
// [Collector] reads [apiguard.Engine.MetricsSnapshot] on every scrape and
// emits const metrics, so it holds no state of its own. Counter names are
// prefixed apiguard_*_total; the single histogram is
// apiguard_dispatch_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry. Callers register the
//     Collector or mount Handler.
//   - Mutate engine state.
package prometheus
