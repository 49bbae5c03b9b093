/*
Package observability exposes Prometheus metrics for the weft engine.

Metrics are fed by lifecycle hooks, so they stay a side channel: nothing in a
run reads them back. Attach them with runtime.WithLifecycleHooks (or the
facade's weft.WithLifecycleHooks) and serve Handler on /metrics.
*/
package observability
