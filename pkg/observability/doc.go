/*
Package observability provides lifecycle hooks for monitoring node test runs.

Metrics exports Prometheus counters and histograms for runs and node results,
and AuditHooks writes one structured log record per lifecycle event. Both
produce domain.LifecycleHooks, which combine with domain.CombineHooks.
*/
package observability
