// Package tracing integrates OpenTelemetry with the approval workflow.  All
// instrumentation lives in a separate package so that applications which do
// not require tracing can exclude it from their wiring; without an installed
// exporter every span is a no-op.
package tracing
