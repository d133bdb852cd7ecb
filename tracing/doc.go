// Package tracing wraps OpenTelemetry so that turn handling can open spans
// without importing the upstream packages directly.
package tracing
