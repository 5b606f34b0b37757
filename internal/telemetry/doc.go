// Package telemetry provides OpenTelemetry initialization and helpers
// for tracing, logs and metrics of the cookbook service.
//
// All three signals are exported over OTLP/HTTP to the endpoint given in
// OTEL_EXPORTER_OTLP_ENDPOINT.
package telemetry
