// Package observability builds the OpenTelemetry tracer and meter providers
// that receive the client's spans and request metrics.
//
// Exporters are selected by endpoint: "stdout" pretty-prints to a writer,
// anything else is an OTLP collector reached over HTTP or gRPC.
package observability
