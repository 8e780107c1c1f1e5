// Package metrics provides observability hooks for version synchronization runs.
//
// Components receive a Recorder through dependency injection. By default the CLI
// uses NoopRecorder; when a textfile path is configured it installs a
// PrometheusRecorder backed by a private registry and, once the run finishes,
// writes the registry in the Prometheus text exposition format so a node_exporter
// textfile collector can pick it up:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run ...
//	err := metrics.WriteTextfile(reg, "/var/lib/node_exporter/workspace_version.prom")
//
// Recorder methods are cheap and synchronous; a run is single threaded so no
// implementation needs to batch.
package metrics
