// Package metrics provides the centralized Prometheus metrics registry for
// the Agmarknet fetch engine. Metrics are defined in their owning packages
// (client, regions) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the fetch engine.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - mandi_requests_total{status} (Counter): Page requests by HTTP status or "network_error"
//   - mandi_request_duration_seconds (Histogram): Page request duration
//   - mandi_errors_total{class} (Counter): Fetch errors by class (transport, protocol)
//   - mandi_records_fetched_total (Counter): Raw records fetched across all pages
//
// Partition Metrics (pkg/regions):
//   - mandi_region_runs_total{state} (Counter): Per-region pagination runs by terminal state (done, failed)
//   - mandi_region_records_total (Counter): Records gathered across all region partitions
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(mandi_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(mandi_request_duration_seconds_bucket[5m]))
//
//   # Share of regions ending in failure
//   mandi_region_runs_total{state="failed"} / ignoring(state) sum(mandi_region_runs_total)
